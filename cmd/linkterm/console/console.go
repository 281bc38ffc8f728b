// Package console implements the console command: it wires the node
// readers, the drone link, the session and the optional API together and
// runs the terminal UI.
package console

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/txn2/linkterm/pkg/ltapi"
	"github.com/txn2/linkterm/pkg/ltcfg"
	"github.com/txn2/linkterm/pkg/ltevents"
	"github.com/txn2/linkterm/pkg/ltlink"
	"github.com/txn2/linkterm/pkg/ltlog"
	"github.com/txn2/linkterm/pkg/ltlogger"
	"github.com/txn2/linkterm/pkg/ltmetrics"
	"github.com/txn2/linkterm/pkg/ltmsg"
	"github.com/txn2/linkterm/pkg/ltsession"
	"github.com/txn2/linkterm/pkg/lttui"
)

// cmdline arguments
var configPath string
var remote string
var relay string
var drone string
var sink string
var capacity int
var sendTimeout time.Duration
var apiMode bool
var apiListen string
var logFile string
var theme string
var verbose bool
var headless bool

// Version is set by the main package
var Version string

const shutdownTimeout = 3 * time.Second

func init() {
	defaults := ltcfg.Default()

	Cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML configuration file")
	Cmd.Flags().StringVar(&remote, "remote", "", "Line source of the remote node (serial://, tcp://, file://, ws://, nats:// or -)")
	Cmd.Flags().StringVar(&relay, "relay", "", "Line source of the relay node")
	Cmd.Flags().StringVar(&drone, "drone", "", "Line source of the drone node")
	Cmd.Flags().StringVarP(&sink, "sink", "s", defaults.Sink, "Drone link for sent messages (log, serial://, tcp://, file://, nats://)")
	Cmd.Flags().IntVar(&capacity, "capacity", defaults.LogCapacity, "Lines kept per node")
	Cmd.Flags().DurationVar(&sendTimeout, "send-timeout", defaults.SendTimeout, "Timeout for handing one message to the drone link")
	Cmd.Flags().BoolVar(&apiMode, "api", false, "Enable the read-only REST API")
	Cmd.Flags().StringVar(&apiListen, "api-listen", defaults.API.Listen, "Address of the REST API")
	Cmd.Flags().StringVar(&logFile, "log-file", "", "Also write console logs to a rotating file")
	Cmd.Flags().StringVar(&theme, "theme", defaults.Theme, "Color theme: auto, dark or light")
	Cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output.")
	Cmd.Flags().BoolVar(&headless, "headless", false, "Run readers and the API without the terminal UI")
}

var Cmd = &cobra.Command{
	Use:   "console",
	Short: "Run the operator console",
	Long: `Run the operator console.

Each node (remote, relay, drone) gets a tab showing its log stream. Press i
to type a command, Enter to send it, Esc to discard it; p sends a Ping.`,
	Example: "  linkterm --relay serial:///dev/ttyACM0 --sink serial:///dev/ttyUSB0\n" +
		"  linkterm --drone tcp://192.168.4.1:4000 --sink tcp://192.168.4.1:4001\n" +
		"  defmt-print -e fw.elf < /dev/ttyACM1 | linkterm --drone -\n" +
		"  linkterm -c linkterm.yaml --api",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runCmd,
}

// loadConfig reads the config file, if any, and applies the flags the
// operator set explicitly
func loadConfig(flags *pflag.FlagSet) (*ltcfg.Config, error) {
	cfg := ltcfg.Default()
	if configPath != "" {
		var err error
		if cfg, err = ltcfg.Load(configPath); err != nil {
			return nil, err
		}
	}

	overrides := map[string]func(){
		"remote":       func() { cfg.Nodes.Remote = remote },
		"relay":        func() { cfg.Nodes.Relay = relay },
		"drone":        func() { cfg.Nodes.Drone = drone },
		"sink":         func() { cfg.Sink = sink },
		"capacity":     func() { cfg.LogCapacity = capacity },
		"send-timeout": func() { cfg.SendTimeout = sendTimeout },
		"api":          func() { cfg.API.Enabled = apiMode },
		"api-listen":   func() { cfg.API.Listen = apiListen },
		"log-file":     func() { cfg.Log.File = logFile },
		"theme":        func() { cfg.Theme = theme },
	}
	for name, apply := range overrides {
		if flags.Changed(name) {
			apply()
		}
	}
	if headless {
		cfg.API.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// nodeSources pairs every configured node with its source URL
func nodeSources(cfg *ltcfg.Config) map[ltlog.Node]string {
	sources := make(map[ltlog.Node]string)
	for n, raw := range map[ltlog.Node]string{
		ltlog.Remote: cfg.Nodes.Remote,
		ltlog.Relay:  cfg.Nodes.Relay,
		ltlog.Drone:  cfg.Nodes.Drone,
	} {
		if raw != "" {
			sources[n] = raw
		}
	}
	return sources
}

func readsStdin(sources map[ltlog.Node]string) bool {
	for _, raw := range sources {
		if raw == "-" || raw == "stdin" {
			return true
		}
	}
	return false
}

// buildReaders parses every node source into a supervised reader
func buildReaders(sources map[ltlog.Node]string, logs *ltlog.Set, bus *ltevents.Bus) ([]*ltlink.Reader, error) {
	readers := make([]*ltlink.Reader, 0, len(sources))
	for _, n := range ltlog.Nodes {
		raw, ok := sources[n]
		if !ok {
			continue
		}
		src, err := ltlink.ParseSource(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "%s source", n)
		}
		readers = append(readers, ltlink.NewReader(src, logs.Channel(n), bus))
	}
	return readers, nil
}

// responseHandler echoes drone responses to the Remote log
func responseHandler(logs *ltlog.Set, bus *ltevents.Bus) ltlink.ResponseHandler {
	return func(res ltmsg.Response) {
		logs.Channel(ltlog.Remote).Append("Received: " + res.String())
		bus.Publish(ltevents.Event{
			Type:      ltevents.ResponseReceived,
			Timestamp: time.Now(),
			Node:      ltlog.Drone.String(),
			Text:      res.String(),
		})
	}
}

// setupSignalHandler sets up graceful shutdown on signals
func setupSignalHandler(triggerShutdown func()) {
	go func() {
		sigChan := make(chan os.Signal, 2)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		<-sigChan
		log.Infof("Shutting down... (press Ctrl+C again to force)")
		triggerShutdown()

		<-sigChan
		log.Warnf("Forced shutdown")
		os.Exit(1)
	}()
}

func runCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if err := ltlogger.Setup(cfg.Log, verbose); err != nil {
		return err
	}
	defer func() { _ = ltlogger.Close() }()

	log.Debugf("linkterm %s starting", Version)

	bus := ltevents.NewBus(1000)
	bus.Start()
	defer bus.Stop()
	unsubscribe := ltmetrics.Get().Attach(bus)
	defer unsubscribe()

	logs := ltlog.NewSet(cfg.LogCapacity)
	sources := nodeSources(cfg)
	readers, err := buildReaders(sources, logs, bus)
	if err != nil {
		return err
	}

	link, err := ltlink.ParseSink(cfg.Sink, responseHandler(logs, bus))
	if err != nil {
		return err
	}
	defer func() {
		if err := link.Close(); err != nil {
			log.Warnf("Closing drone link: %v", err)
		}
	}()

	session := ltsession.New(ltsession.Config{
		Sink:        link,
		Logs:        logs,
		Bus:         bus,
		SendTimeout: cfg.SendTimeout,
		HistorySize: cfg.HistorySize,
	})
	defer session.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	supervisor := ltlink.NewSupervisor()
	for _, r := range readers {
		supervisor.Add(r)
	}
	supervisorDone := supervisor.ServeBackground(ctx)

	stopListenCh := make(chan struct{})
	var stopOnce sync.Once
	triggerShutdown := func() {
		stopOnce.Do(func() { close(stopListenCh) })
	}

	var tuiManager *lttui.Manager
	if !headless {
		tuiManager = lttui.New(lttui.Options{
			Session:  session,
			Version:  Version,
			Theme:    cfg.Theme,
			InputTTY: readsStdin(sources),
		})
		go func() {
			<-stopListenCh
			tuiManager.Stop()
		}()
	}

	apiManager := setupAPIManager(cfg, sources, logs, session, bus, tuiManager != nil, triggerShutdown)
	setupSignalHandler(triggerShutdown)

	if tuiManager != nil {
		if err := tuiManager.Run(); err != nil {
			log.Errorf("TUI error: %s", err)
		}
		triggerShutdown()
	} else {
		log.Println("Press [Ctrl-C] to stop.")
		<-stopListenCh
	}

	performShutdown(cancel, supervisorDone, apiManager)
	return nil
}

// setupAPIManager starts the API server when enabled
func setupAPIManager(cfg *ltcfg.Config, sources map[ltlog.Node]string, logs *ltlog.Set, session *ltsession.Session, bus *ltevents.Bus, tuiEnabled bool, triggerShutdown func()) *ltapi.Manager {
	if !cfg.API.Enabled {
		return nil
	}

	nodes := make(map[string]string, len(sources))
	for n, raw := range sources {
		nodes[n.String()] = raw
	}

	apiManager := ltapi.New(ltapi.Options{
		Listen:     cfg.API.Listen,
		Version:    Version,
		Logs:       logs,
		History:    session.History(),
		Bus:        bus,
		Nodes:      nodes,
		Sink:       cfg.Sink,
		TUIEnabled: tuiEnabled,
	})
	go func() {
		if err := apiManager.Run(); err != nil {
			log.Errorf("API server error: %s", err)
			if !tuiEnabled {
				triggerShutdown()
			}
		}
	}()
	return apiManager
}

// performShutdown stops readers and the API, waiting a bounded time for each
func performShutdown(cancel context.CancelFunc, supervisorDone <-chan error, apiManager *ltapi.Manager) {
	cancel()
	select {
	case err := <-supervisorDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Debugf("Reader supervisor stopped: %v", err)
		}
	case <-time.After(shutdownTimeout):
		log.Debugf("Timeout waiting for readers, forcing exit")
	}

	if apiManager != nil {
		apiManager.Stop()
		select {
		case <-apiManager.Done():
		case <-time.After(shutdownTimeout):
			log.Debugf("Timeout waiting for API server")
		}
	}
}
