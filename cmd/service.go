package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inovacc/finzana/internal/application"
	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

var (
	serviceStart     bool
	serviceStop      bool
	serviceInstall   bool
	serviceUninstall bool
	serviceStatus    bool
	serviceRun       bool
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the finzana API server as a system service",
	Long: `Install, uninstall, start, stop, or check the status of the finzana API
server as a system service.

On Windows, this creates/manages a Windows Service.
On Linux/macOS, this creates/manages a systemd/launchd service.`,
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(serviceCmd)
	serviceCmd.Flags().BoolVar(&serviceStart, "start", false, "Start the finzana service")
	serviceCmd.Flags().BoolVar(&serviceStop, "stop", false, "Stop the finzana service")
	serviceCmd.Flags().BoolVar(&serviceInstall, "install", false, "Install finzana as a system service")
	serviceCmd.Flags().BoolVar(&serviceUninstall, "uninstall", false, "Uninstall the finzana system service")
	serviceCmd.Flags().BoolVar(&serviceStatus, "status", false, "Check the finzana service status")
	serviceCmd.Flags().BoolVar(&serviceRun, "run", false, "Run under the service manager")
	_ = serviceCmd.Flags().MarkHidden("run")
}

// program implements service.Interface around runServer.
type program struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *program) Start(service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		if err := runServer(ctx, serveOptions{}); err != nil {
			slog.Error("server exited", "error", err)
		}
	}()

	return nil
}

func (p *program) Stop(service.Service) error {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}

	return nil
}

func runService(cmd *cobra.Command, args []string) error {
	flagCount := 0
	for _, set := range []bool{serviceStart, serviceStop, serviceInstall, serviceUninstall, serviceStatus, serviceRun} {
		if set {
			flagCount++
		}
	}

	if flagCount == 0 {
		return fmt.Errorf("please specify one of: --start, --stop, --install, --uninstall, --status")
	}

	if flagCount > 1 {
		return fmt.Errorf("please specify only one operation at a time")
	}

	arguments := []string{"service", "--run"}
	if settingsPath != "" {
		arguments = append(arguments, "--config", settingsPath)
	}

	svcConfig := &service.Config{
		Name:        application.AppName,
		DisplayName: application.DisplayName,
		Description: "Finzana back office API and spreadsheet sync",
		Arguments:   arguments,
	}

	s, err := service.New(&program{}, svcConfig)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	switch {
	case serviceRun:
		return s.Run()
	case serviceInstall:
		return installService(s)
	case serviceUninstall:
		return uninstallService(s)
	case serviceStart:
		return controlService("Starting", s.Start)
	case serviceStop:
		return controlService("Stopping", s.Stop)
	case serviceStatus:
		return statusService(s)
	}

	return nil
}

func installService(s service.Service) error {
	fmt.Println("Installing finzana service...")

	if err := s.Install(); err != nil {
		return fmt.Errorf("failed to install service: %w", err)
	}

	fmt.Println("✓ Service installed successfully!")
	fmt.Println("\nTo start the service, run:")
	fmt.Println("  finzana service --start")

	return nil
}

func uninstallService(s service.Service) error {
	fmt.Println("Uninstalling finzana service...")

	// Try to stop first
	_ = s.Stop()

	if err := s.Uninstall(); err != nil {
		return fmt.Errorf("failed to uninstall service: %w", err)
	}

	fmt.Println("✓ Service uninstalled successfully!")

	return nil
}

func controlService(verb string, action func() error) error {
	fmt.Printf("%s finzana service...\n", verb)

	if err := action(); err != nil {
		return fmt.Errorf("service control failed: %w", err)
	}

	fmt.Println("✓ Done")

	return nil
}

func statusService(s service.Service) error {
	status, err := s.Status()
	if err != nil {
		return fmt.Errorf("failed to get service status: %w", err)
	}

	fmt.Printf("Service Status: ")

	switch status {
	case service.StatusRunning:
		fmt.Println("Running ✓")
	case service.StatusStopped:
		fmt.Println("Stopped")
	case service.StatusUnknown:
		fmt.Println("Unknown")
	default:
		fmt.Printf("%v\n", status)
	}

	return nil
}
