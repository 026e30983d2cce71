package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"healthcare-portal/internal/api"
	"healthcare-portal/internal/auth"
	"healthcare-portal/internal/model"
	"healthcare-portal/internal/session"
	"healthcare-portal/internal/view"
	"healthcare-portal/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	baseURL := env("PORTAL_API_URL", "http://localhost:8000")
	stateDir := env("PORTAL_STATE_DIR", defaultStateDir())
	logger := logging.New(os.Stderr, env("LOG_LEVEL", "info"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions := session.New(stateDir, logger)
	client := api.NewClient(baseURL, sessions, api.WithLogger(logger))
	gateway := auth.New(client, sessions, logger)
	router := view.NewRouter(ctx, sessions, client, logger)

	// restore persisted session; malformed state becomes anonymous
	sessions.Restore()

	app := &app{
		ctx:      ctx,
		sessions: sessions,
		gateway:  gateway,
		router:   router,
		out:      os.Stdout,
		in:       bufio.NewScanner(os.Stdin),
	}
	app.run()
}

type app struct {
	ctx      context.Context
	sessions *session.Store
	gateway  *auth.Gateway
	router   *view.Router
	out      io.Writer
	in       *bufio.Scanner
	lines    chan string
}

func (a *app) run() {
	// input is read on its own goroutine so a signal can end the loop
	// even while the scanner is parked waiting for a line
	a.lines = make(chan string)
	go func() {
		defer close(a.lines)
		for a.in.Scan() {
			select {
			case a.lines <- a.in.Text():
			case <-a.ctx.Done():
				return
			}
		}
	}()

	for {
		a.router.Active().Render(a.out)
		fmt.Fprint(a.out, "> ")
		line, ok := a.readLine()
		if !ok {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		a.dispatch(line)
	}
}

// readLine waits for the next input line or cancellation.
func (a *app) readLine() (string, bool) {
	select {
	case <-a.ctx.Done():
		return "", false
	case line, ok := <-a.lines:
		return line, ok
	}
}

func (a *app) dispatch(line string) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	s := a.sessions.Current()
	if s.State != session.StateAuthenticated {
		a.dispatchAnonymous(cmd, args)
		return
	}
	if s.Principal.Role == model.RoleProvider {
		a.dispatchProvider(cmd, args, line)
		return
	}
	a.dispatchPatient(cmd, args, line)
}

func (a *app) dispatchAnonymous(cmd string, args []string) {
	switch cmd {
	case "login":
		if len(args) == 0 {
			a.router.ShowLogin()
			return
		}
		if len(args) != 2 {
			fmt.Fprintln(a.out, "usage: login <email> <password>")
			return
		}
		a.router.Login().Submit(a.ctx, a.gateway, args[0], args[1])
	case "register":
		if len(args) == 0 {
			a.router.ShowRegister()
			return
		}
		if len(args) < 3 {
			fmt.Fprintln(a.out, "usage: register <email> <password> <confirm> [patient|provider] [consent]")
			return
		}
		v := a.router.Register()
		v.Form.Email = args[0]
		v.Form.Password = args[1]
		v.Form.ConfirmPassword = args[2]
		v.Form.Role = model.RolePatient
		v.Form.ConsentGiven = false
		for _, arg := range args[3:] {
			switch arg {
			case "provider":
				v.Form.Role = model.RoleProvider
			case "patient":
				v.Form.Role = model.RolePatient
			case "consent", "yes":
				v.Form.ConsentGiven = true
			}
		}
		v.Submit(a.ctx, a.gateway)
	default:
		fmt.Fprintln(a.out, "unknown command:", cmd)
	}
}

func (a *app) dispatchPatient(cmd string, args []string, line string) {
	switch cmd {
	case "home":
		a.router.ShowHome()
	case "book":
		a.router.ShowBooking()
	case "appointments":
		a.router.ShowMyAppointments()
	case "doctor", "date", "time", "reason", "submit":
		a.bookingCommand(cmd, args, line)
	case "cancel":
		a.cancelCommand(args)
	case "logout":
		a.gateway.Logout()
	default:
		fmt.Fprintln(a.out, "unknown command:", cmd)
	}
}

func (a *app) bookingCommand(cmd string, args []string, line string) {
	v := a.router.Booking()
	if v == nil {
		fmt.Fprintln(a.out, "open the booking screen first: book")
		return
	}
	switch cmd {
	case "doctor":
		if len(args) == 1 {
			v.SelectProvider(a.ctx, args[0])
		}
	case "date":
		if len(args) == 1 {
			v.Date = args[0]
		}
	case "time":
		if len(args) == 1 {
			v.Time = args[0]
		}
	case "reason":
		v.Reason = strings.TrimSpace(strings.TrimPrefix(line, "reason"))
	case "submit":
		v.Submit(a.ctx)
	}
}

func (a *app) cancelCommand(args []string) {
	v := a.router.MyAppointments()
	if v == nil {
		fmt.Fprintln(a.out, "open your appointments first: appointments")
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(a.out, "usage: cancel <id>")
		return
	}
	fmt.Fprint(a.out, "Are you sure you want to cancel this appointment? [y/N] ")
	line, ok := a.readLine()
	if !ok || strings.ToLower(strings.TrimSpace(line)) != "y" {
		return
	}
	v.Cancel(a.ctx, args[0])
}

func (a *app) dispatchProvider(cmd string, args []string, line string) {
	d := a.router.Provider()
	switch cmd {
	case "refresh":
		d.Refresh(a.ctx)
	case "update":
		if len(args) < 2 {
			fmt.Fprintln(a.out, "usage: update <id> <status> [notes]")
			return
		}
		notes := strings.TrimSpace(strings.TrimPrefix(line, "update "+args[0]+" "+args[1]))
		d.Update(a.ctx, args[0], model.Status(args[1]), notes)
	case "logout":
		a.gateway.Logout()
	default:
		fmt.Fprintln(a.out, "unknown command:", cmd)
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("state dir: %v", err)
	}
	return filepath.Join(home, ".healthcare-portal")
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
