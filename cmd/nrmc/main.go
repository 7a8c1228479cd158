package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	nrmclient "github.com/anlsys/libnrm-sub000/internal/client"
	"github.com/anlsys/libnrm-sub000/internal/config"
	"github.com/anlsys/libnrm-sub000/internal/log"
	"github.com/anlsys/libnrm-sub000/internal/types"
	"github.com/anlsys/libnrm-sub000/internal/wire"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "nrmc",
	Short:   "nrmc - command-line client for nrmd",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("nrmc version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime))
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cobra.OnInitialize(func() {
		level, _ := rootCmd.PersistentFlags().GetString("log-level")
		log.Init(log.Config{Level: log.Level(level)})
	})

	addActuatorCmd.Flags().Float64Slice("choices", nil, "discrete actuator choice set")
	addActuatorCmd.Flags().Float64("min", 0, "continuous actuator minimum")
	addActuatorCmd.Flags().Float64("max", 0, "continuous actuator maximum")
	addActuatorCmd.Flags().Float64("initial", 0, "initial value")
	addActuatorCmd.Flags().Bool("continuous", false, "register a continuous actuator instead of discrete")

	addScopeCmd.Flags().IntSlice("cpu", nil, "CPU indices in the scope")
	addScopeCmd.Flags().IntSlice("numa", nil, "NUMA node indices in the scope")
	addScopeCmd.Flags().IntSlice("gpu", nil, "GPU indices in the scope")

	addCmd.AddCommand(addActuatorCmd, addScopeCmd, addSensorCmd, addSliceCmd)
	listCmd.AddCommand(listActuatorsCmd, listScopesCmd, listSensorsCmd, listSlicesCmd)
	findCmd.AddCommand(findActuatorCmd, findScopeCmd, findSensorCmd, findSliceCmd)
	removeCmd.AddCommand(removeActuatorCmd, removeScopeCmd, removeSensorCmd, removeSliceCmd)

	for _, c := range []*cobra.Command{findActuatorCmd, findScopeCmd, findSensorCmd, findSliceCmd,
		removeActuatorCmd, removeScopeCmd, removeSensorCmd, removeSliceCmd} {
		c.Flags().String("uuid", "", "look up by UUID instead of name")
	}
	for _, c := range []*cobra.Command{removeActuatorCmd, removeScopeCmd, removeSensorCmd, removeSliceCmd} {
		c.Flags().Bool("all", false, "remove every entity of this kind")
	}

	rootCmd.AddCommand(addCmd, listCmd, findCmd, removeCmd, listenCmd, sendEventCmd)
}

func newClient(ctx context.Context) (*nrmclient.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return nrmclient.New(ctx, nrmclient.Options{
		RPCAddr:   cfg.RPCAddr(),
		PubAddr:   cfg.PubAddr(),
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		Transmit:  cfg.Transmit,
	})
}

var addCmd = &cobra.Command{Use: "add", Short: "Register an entity with the daemon"}

var addActuatorCmd = &cobra.Command{
	Use:   "actuator NAME",
	Short: "Register a discrete or continuous actuator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		continuous, _ := cmd.Flags().GetBool("continuous")
		initial, _ := cmd.Flags().GetFloat64("initial")

		var a *types.Actuator
		if continuous {
			min, _ := cmd.Flags().GetFloat64("min")
			max, _ := cmd.Flags().GetFloat64("max")
			a = types.NewContinuousActuator(args[0], min, max, initial)
		} else {
			choices, _ := cmd.Flags().GetFloat64Slice("choices")
			a = types.NewDiscreteActuator(args[0], choices, initial)
		}

		got, err := c.AddActuator(ctx, a)
		if err != nil {
			return err
		}
		fmt.Printf("actuator %s registered as %s\n", got.Name, got.UUID)
		return nil
	},
}

var addScopeCmd = &cobra.Command{
	Use:   "scope NAME",
	Short: "Register a scope over CPU/NUMA/GPU index sets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		s := types.NewScope(args[0])
		cpu, _ := cmd.Flags().GetIntSlice("cpu")
		numa, _ := cmd.Flags().GetIntSlice("numa")
		gpu, _ := cmd.Flags().GetIntSlice("gpu")
		for _, i := range cpu {
			s.Add(types.DomainCPU, i)
		}
		for _, i := range numa {
			s.Add(types.DomainNUMA, i)
		}
		for _, i := range gpu {
			s.Add(types.DomainGPU, i)
		}

		got, err := c.AddScope(ctx, s)
		if err != nil {
			return err
		}
		fmt.Printf("scope %s registered as %s\n", got.Name, got.UUID)
		return nil
	},
}

var addSensorCmd = &cobra.Command{
	Use:   "sensor NAME",
	Short: "Register a sensor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		s, err := c.AddSensor(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("sensor %s registered as %s\n", s.Name, s.UUID)
		return nil
	},
}

var addSliceCmd = &cobra.Command{
	Use:   "slice NAME",
	Short: "Register a slice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		s, err := c.AddSlice(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("slice %s registered as %s\n", s.Name, s.UUID)
		return nil
	},
}

var listCmd = &cobra.Command{Use: "list", Short: "List registered entities"}

func listKind(kind types.EntityKind) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		entities, err := c.List(ctx, kind)
		if err != nil {
			return err
		}
		for _, e := range entities {
			printEntity(e)
		}
		return nil
	}
}

var listActuatorsCmd = &cobra.Command{Use: "actuators", RunE: listKind(types.EntityActuator)}
var listScopesCmd = &cobra.Command{Use: "scopes", RunE: listKind(types.EntityScope)}
var listSensorsCmd = &cobra.Command{Use: "sensors", RunE: listKind(types.EntitySensor)}
var listSlicesCmd = &cobra.Command{Use: "slices", RunE: listKind(types.EntitySlice)}

func printEntity(e wire.EntityPayload) {
	switch e.Kind {
	case types.EntityActuator:
		fmt.Printf("%s\t%s\tvalue=%v\n", e.Actuator.UUID, e.Actuator.Name, e.Actuator.Value)
	case types.EntityScope:
		fmt.Printf("%s\t%s\n", e.Scope.UUID, e.Scope.Name)
	case types.EntitySensor:
		fmt.Printf("%s\t%s\n", e.Sensor.UUID, e.Sensor.Name)
	case types.EntitySlice:
		fmt.Printf("%s\t%s\n", e.Slice.UUID, e.Slice.Name)
	}
}

var findCmd = &cobra.Command{Use: "find", Short: "Find entities by name or UUID"}

func findKind(kind types.EntityKind) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		uuid, _ := cmd.Flags().GetString("uuid")
		var name string
		if len(args) > 0 {
			name = args[0]
		}
		ctx := cmd.Context()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		entities, err := c.Find(ctx, kind, uuid, name)
		if err != nil {
			return err
		}
		for _, e := range entities {
			printEntity(e)
		}
		return nil
	}
}

var findActuatorCmd = &cobra.Command{Use: "actuator [NAME]", Args: cobra.MaximumNArgs(1), RunE: findKind(types.EntityActuator)}
var findScopeCmd = &cobra.Command{Use: "scope [NAME]", Args: cobra.MaximumNArgs(1), RunE: findKind(types.EntityScope)}
var findSensorCmd = &cobra.Command{Use: "sensor [NAME]", Args: cobra.MaximumNArgs(1), RunE: findKind(types.EntitySensor)}
var findSliceCmd = &cobra.Command{Use: "slice [NAME]", Args: cobra.MaximumNArgs(1), RunE: findKind(types.EntitySlice)}

var removeCmd = &cobra.Command{Use: "remove", Short: "Remove an entity"}

// removeKind supports a NAME argument (resolved via FIND first), a
// --uuid flag, or --all, which removes every registered entity of kind.
func removeKind(kind types.EntityKind) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}

		if all, _ := cmd.Flags().GetBool("all"); all {
			entities, err := c.List(ctx, kind)
			if err != nil {
				return err
			}
			for _, e := range entities {
				if err := c.Remove(ctx, kind, entityUUID(e)); err != nil {
					return err
				}
			}
			return nil
		}

		uuid, _ := cmd.Flags().GetString("uuid")
		if uuid == "" {
			if len(args) == 0 {
				return fmt.Errorf("remove: requires NAME, --uuid, or --all")
			}
			entities, err := c.Find(ctx, kind, "", args[0])
			if err != nil {
				return err
			}
			if len(entities) == 0 {
				return fmt.Errorf("remove: no %s named %q", kind, args[0])
			}
			uuid = entityUUID(entities[0])
		}
		return c.Remove(ctx, kind, uuid)
	}
}

func entityUUID(e wire.EntityPayload) string {
	switch e.Kind {
	case types.EntityActuator:
		return e.Actuator.UUID
	case types.EntityScope:
		return e.Scope.UUID
	case types.EntitySensor:
		return e.Sensor.UUID
	case types.EntitySlice:
		return e.Slice.UUID
	default:
		return ""
	}
}

var removeActuatorCmd = &cobra.Command{Use: "actuator [NAME]", Args: cobra.MaximumNArgs(1), RunE: removeKind(types.EntityActuator)}
var removeScopeCmd = &cobra.Command{Use: "scope [NAME]", Args: cobra.MaximumNArgs(1), RunE: removeKind(types.EntityScope)}
var removeSensorCmd = &cobra.Command{Use: "sensor [NAME]", Args: cobra.MaximumNArgs(1), RunE: removeKind(types.EntitySensor)}
var removeSliceCmd = &cobra.Command{Use: "slice [NAME]", Args: cobra.MaximumNArgs(1), RunE: removeKind(types.EntitySlice)}

var listenCmd = &cobra.Command{
	Use:   "listen TOPIC",
	Short: "Subscribe to a topic and print events until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		c, err := newClient(ctx)
		if err != nil {
			return err
		}

		if err := c.StartEventListener(ctx, args[0], func(sensorUUID, scopeUUID string, t time.Time, value float64) {
			fmt.Printf("%s\t%s\t%v\n", sensorUUID, scopeUUID, value)
		}); err != nil {
			return err
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		return nil
	},
}

var sendEventCmd = &cobra.Command{
	Use:   "send-event SENSOR_UUID SCOPE_UUID VALUE",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		var value float64
		if _, err := fmt.Sscanf(args[2], "%g", &value); err != nil {
			return fmt.Errorf("invalid value %q: %w", args[2], err)
		}
		return c.SendEvent(ctx, args[0], args[1], value)
	},
}
