// Package servecmder provides the serve command for running the pulse hub.
package servecmder

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/pulse/pkg/broadcast"
	"github.com/papercomputeco/pulse/pkg/config"
	"github.com/papercomputeco/pulse/pkg/logger"
	"github.com/papercomputeco/pulse/pkg/source"
	"github.com/papercomputeco/pulse/pkg/sse"
	"github.com/papercomputeco/pulse/server"
)

type ServeCommander struct {
	listen      string
	heartbeat   time.Duration
	brokers     string
	topic       string
	group       string
	interactive bool
	debug       bool
	logger      *zap.Logger
}

const serveLongDesc string = `Run the pulse hub.

The hub accepts SSE subscriptions on GET /events, fans published events
out to every subscriber, and prunes clients whose connection has died.
Events arrive over POST /events, from the optional Kafka source, or from
the interactive console (--interactive).

A periodic heartbeat keeps idle connections alive; disable it with
--heartbeat 0.`

const serveShortDesc string = "Run the pulse hub"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagListen,
				config.FlagHeartbeat,
				config.FlagBrokers,
				config.FlagTopic,
				config.FlagGroup,
			})

			cmder.listen = v.GetString("server.listen")
			cmder.heartbeat = v.GetDuration("server.heartbeat")
			cmder.brokers = v.GetString("source.brokers")
			cmder.topic = v.GetString("source.topic")
			cmder.group = v.GetString("source.group")

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddDurationFlag(cmd, config.Flags, config.FlagHeartbeat, &cmder.heartbeat)
	config.AddStringFlag(cmd, config.Flags, config.FlagBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagTopic, &cmder.topic)
	config.AddStringFlag(cmd, config.Flags, config.FlagGroup, &cmder.group)
	cmd.Flags().BoolVarP(&cmder.interactive, "interactive", "i", false,
		"Read broadcast commands from stdin (help, send, count, stop)")

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	registry := broadcast.NewRegistry(c.logger)
	srv := server.New(server.Config{ListenAddr: c.listen}, registry, c.logger)

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	go func() {
		if err := srv.Run(); err != nil {
			errChan <- fmt.Errorf("hub server error: %w", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go heartbeatLoop(ctx, registry, c.heartbeat, c.logger)

	if c.brokers != "" && c.topic != "" {
		src, err := source.NewKafka(source.KafkaConfig{
			Brokers: strings.Split(c.brokers, ","),
			Topic:   c.topic,
			GroupID: c.group,
		}, registry, c.logger)
		if err != nil {
			return fmt.Errorf("creating kafka source: %w", err)
		}
		defer src.Close()

		go func() {
			if err := src.Run(ctx); err != nil {
				errChan <- fmt.Errorf("kafka source error: %w", err)
			}
		}()
	}

	stopChan := make(chan struct{})
	if c.interactive {
		go c.commandLoop(registry, stopChan)
	}

	// Wait for interrupt signal, console stop, or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case <-stopChan:
		c.logger.Info("stop requested, shutting down")
	}

	return srv.Shutdown()
}

// commandLoop reads broadcast commands from stdin until "stop" or EOF.
func (c *ServeCommander) commandLoop(registry *broadcast.Registry, stop chan<- struct{}) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		command, args, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")

		switch command {
		case "help":
			fmt.Println("help: show this menu")
			fmt.Println("send <data>: send data as a string to all connected clients")
			fmt.Println("count: show number of connected clients")
			fmt.Println("stop: stop the server")
		case "send":
			frame, err := sse.Event{Data: args}.Encode()
			if err != nil {
				fmt.Printf("Could not encode event: %v\n", err)
				continue
			}
			clients := registry.Broadcast(frame)
			fmt.Printf("Sent %q to %d clients.\n", args, clients)
		case "count":
			if n := registry.Count(); n == 1 {
				fmt.Println("There is 1 connected client.")
			} else {
				fmt.Printf("There are %d connected clients.\n", n)
			}
		case "stop":
			close(stop)
			return
		case "":
			// Empty line, prompt again.
		default:
			fmt.Printf("Unknown command %s.\n", command)
		}
	}
}

// heartbeatLoop periodically broadcasts the keep-alive frame so idle
// connections are not reaped by proxies or the client. The registry has
// no timers of its own; this loop is the external driver.
func heartbeatLoop(ctx context.Context, registry *broadcast.Registry, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			clients := registry.Heartbeat()
			logger.Debug("heartbeat sent", zap.Int("clients", clients))
		}
	}
}
