package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"

	"github.com/a-essam23/syncboard/pkg/auth"
	"github.com/a-essam23/syncboard/pkg/canvas"
	"github.com/a-essam23/syncboard/pkg/client"
	"github.com/a-essam23/syncboard/pkg/logging"
	"github.com/a-essam23/syncboard/pkg/protocol"
	"github.com/a-essam23/syncboard/pkg/shape"
)

const version = "0.1.0"

var logger *slog.Logger

func main() {
	usage := `Syncboard control.

The default server url is http://localhost:8080.

Usage:
    boardctl token --secret=<secret> --user=<user_id>
        [--perms=<perms>] [--ttl=<ttl>]
    boardctl render [--server=<url>] --token=<jwt> --room=<room_id>
        --out=<path> [--format=<format>] [--width=<w>] [--height=<h>] [--debug]
    boardctl draw [--server=<url>] --token=<jwt> --room=<room_id> [--debug] <shape>
    boardctl erase [--server=<url>] --token=<jwt> --room=<room_id> [--debug] <x> <y>
    boardctl watch [--server=<url>] --token=<jwt> --room=<room_id>
        [--out=<path>] [--width=<w>] [--height=<h>] [--debug]

Options:
    -h --help            Show this screen.
    --version            Show version.
    --secret=<secret>    HMAC secret the server verifies tokens with.
    --user=<user_id>     User id to put in the token.
    --perms=<perms>      Comma separated permissions, e.g. read,write.
    --ttl=<ttl>          Token lifetime [default: 24h].
    --server=<url>       Server base url [default: http://localhost:8080].
    --token=<jwt>        Bearer token.
    --room=<room_id>     Room to act on.
    --out=<path>         Output file.
    --format=<format>    png or pdf; guessed from --out when omitted.
    --width=<w>          Canvas width in pixels [default: 1280].
    --height=<h>         Canvas height in pixels [default: 720].
    --debug              Log debug output.

A shape is its JSON form, e.g. '{"type":"rect","x":10,"y":10,"width":50,"height":30}'.`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		panic(err)
	}

	level := logging.LevelInfo
	if debug, _ := opts.Bool("--debug"); debug {
		level = logging.LevelDebug
	}
	logger = logging.New(level)

	if token_, _ := opts.Bool("token"); token_ {
		err = issueToken(opts)
	} else if render_, _ := opts.Bool("render"); render_ {
		err = render(opts)
	} else if draw_, _ := opts.Bool("draw"); draw_ {
		err = draw(opts)
	} else if erase_, _ := opts.Bool("erase"); erase_ {
		err = erase(opts)
	} else if watch_, _ := opts.Bool("watch"); watch_ {
		err = watch(opts)
	}
	if err != nil {
		logger.Error("Command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func issueToken(opts docopt.Opts) error {
	secret, _ := opts.String("--secret")
	userID, _ := opts.String("--user")
	ttlStr, _ := opts.String("--ttl")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return fmt.Errorf("bad --ttl: %w", err)
	}
	var perms []string
	if p, _ := opts.String("--perms"); p != "" {
		perms = strings.Split(p, ",")
	}
	tok, err := auth.New(secret).Issue(userID, perms, ttl)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}

// readOnly refuses to send; render never draws, so nothing goes out.
type readOnly struct{}

func (readOnly) Send(context.Context, []byte) error {
	return fmt.Errorf("read-only session")
}

// preloaded serves history that was already fetched.
type preloaded []shape.Shape

func (p preloaded) Load(context.Context, string) ([]shape.Shape, error) {
	return append([]shape.Shape(nil), p...), nil
}

func render(opts docopt.Opts) error {
	serverURL, _ := opts.String("--server")
	token, _ := opts.String("--token")
	roomID, _ := opts.String("--room")
	out, _ := opts.String("--out")
	format, _ := opts.String("--format")
	width, height, err := canvasSize(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	// fetch up front: the controller would quietly render an empty scene
	history, err := (&client.HTTPLoader{BaseURL: serverURL, Token: token, Logger: logger}).Load(ctx, roomID)
	if err != nil {
		return err
	}
	loader := preloaded(history)

	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
	}
	switch format {
	case "png":
		raster := canvas.NewRaster(width, height)
		ctrl := client.NewController(ctx, roomID, loader, raster, readOnly{}, logger)
		logger.Info("Rendered room", slog.String("roomID", roomID), slog.Int("shapes", len(ctrl.Shapes())))
		return raster.SavePNG(out)
	case "pdf":
		doc := canvas.NewPDF(float64(width), float64(height))
		ctrl := client.NewController(ctx, roomID, loader, doc, readOnly{}, logger)
		logger.Info("Rendered room", slog.String("roomID", roomID), slog.Int("shapes", len(ctrl.Shapes())))
		if err := doc.Err(); err != nil {
			return err
		}
		return doc.SaveFile(out)
	default:
		return fmt.Errorf("unsupported format '%s'", format)
	}
}

func openBoard(ctx context.Context, opts docopt.Opts, surface canvas.Surface, onFrame func([]byte)) (*client.Board, error) {
	serverURL, _ := opts.String("--server")
	token, _ := opts.String("--token")
	roomID, _ := opts.String("--room")
	return client.Open(ctx, client.Options{
		ServerURL: serverURL,
		Token:     token,
		RoomID:    roomID,
		Surface:   surface,
		Logger:    logger,
		OnFrame:   onFrame,
	})
}

func draw(opts docopt.Opts) error {
	raw, _ := opts.String("<shape>")
	s, err := shape.Decode([]byte(raw))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	board, err := openBoard(ctx, opts, canvas.NewRaster(1, 1), nil)
	if err != nil {
		return err
	}
	defer board.Close()
	board.ApplyLocal(ctx, s)
	logger.Info("Shape sent", slog.String("roomID", board.RoomID()), slog.Any("kind", s.Kind()))
	return nil
}

func erase(opts docopt.Opts) error {
	xStr, _ := opts.String("<x>")
	yStr, _ := opts.String("<y>")
	x, errX := strconv.ParseFloat(xStr, 64)
	y, errY := strconv.ParseFloat(yStr, 64)
	if errX != nil || errY != nil {
		return fmt.Errorf("bad point (%s, %s)", xStr, yStr)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	board, err := openBoard(ctx, opts, canvas.NewRaster(1, 1), nil)
	if err != nil {
		return err
	}
	defer board.Close()
	removed := board.EraseAt(ctx, shape.Point{X: x, Y: y})
	logger.Info("Erased", slog.String("roomID", board.RoomID()), slog.Int("removed", removed))
	return nil
}

func watch(opts docopt.Opts) error {
	out, _ := opts.String("--out")
	width, height, err := canvasSize(opts)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	raster := canvas.NewRaster(width, height)
	board, err := openBoard(ctx, opts, raster, logFrame)
	if err != nil {
		return err
	}
	defer board.Close()
	logger.Info("Watching room", slog.String("roomID", board.RoomID()), slog.Int("shapes", len(board.Shapes())))

	err = board.Run(ctx)
	logger.Info("Stopped watching", slog.Int("shapes", len(board.Shapes())))
	if out != "" {
		if sErr := raster.SavePNG(out); sErr != nil {
			return sErr
		}
		logger.Info("Saved scene", slog.String("path", out))
	}
	return err
}

func logFrame(frame []byte) {
	msg, err := protocol.Decode(frame)
	if err != nil {
		logger.Warn("Undecodable frame", slog.Any("error", err))
		return
	}
	switch msg.Type {
	case protocol.TypeChat:
		logger.Info("Shape drawn", slog.String("roomID", msg.RoomID), slog.Any("kind", msg.Shape.Kind()))
	case protocol.TypeErase:
		logger.Info("Scene replaced", slog.String("roomID", msg.RoomID), slog.Int("shapes", len(msg.Shapes)))
	}
}

func canvasSize(opts docopt.Opts) (int, int, error) {
	wStr, _ := opts.String("--width")
	hStr, _ := opts.String("--height")
	w, errW := strconv.Atoi(wStr)
	h, errH := strconv.Atoi(hStr)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("bad canvas size %sx%s", wStr, hStr)
	}
	return w, h, nil
}
