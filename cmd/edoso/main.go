package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/e-doso/edoso-client/internal/pkg/application/forms"
	"github.com/e-doso/edoso-client/internal/pkg/application/listview"
	"github.com/e-doso/edoso-client/internal/pkg/application/schedule"
	"github.com/e-doso/edoso-client/internal/pkg/application/session"
	"github.com/e-doso/edoso-client/internal/pkg/infrastructure/storage"
	"github.com/e-doso/edoso-client/pkg/client"
	"github.com/e-doso/edoso-client/pkg/types"
	"github.com/joho/godotenv"
	yaml "gopkg.in/yaml.v2"
)

const serviceName string = "edoso"

type flagType int
type flagMap map[flagType]string

const (
	apiURL flagType = iota
	dataDir
	configFile
)

func defaultFlags() flagMap {
	home, _ := os.UserHomeDir()

	return flagMap{
		apiURL:     "http://localhost:8080",
		dataDir:    filepath.Join(home, ".edoso"),
		configFile: filepath.Join(home, ".edoso", "config.yaml"),
	}
}

type fileConfig struct {
	ApiURL  string `yaml:"api_url"`
	DataDir string `yaml:"data_dir"`
}

func main() {
	ctx, flags := parseExternalConfig(context.Background(), defaultFlags())

	serviceVersion := buildinfo.SourceVersion()
	ctx, logger, cleanup := o11y.Init(ctx, serviceName, serviceVersion, "text")
	defer cleanup()

	err := os.MkdirAll(flags[dataDir], 0o755)
	exitIf(err, logger, "could not create data directory")

	store, err := storage.New(ctx, filepath.Join(flags[dataDir], "session.db"))
	exitIf(err, logger, "could not open session store")
	defer store.Close()

	api := client.New(flags[apiURL], session.Tokens(store))
	sess := session.New(store, api)

	err = run(ctx, flag.Args(), sess, api)
	if errors.Is(err, client.ErrInvalidSession) {
		fmt.Fprintln(os.Stderr, "not logged in, or the session has expired. run: edoso login <email> <password>")
		os.Exit(1)
	}
	if errors.Is(err, session.ErrNoGroupSelected) {
		fmt.Fprintln(os.Stderr, "no group selected. run: edoso groups, then: edoso select <id>")
		os.Exit(1)
	}
	exitIf(err, logger, "command failed")
}

func run(ctx context.Context, args []string, sess *session.Session, api *client.Client) error {
	if len(args) == 0 {
		return usage()
	}

	cmd, args := args[0], args[1:]

	switch cmd {
	case "register":
		return register(ctx, args, api)
	case "login":
		return login(ctx, args, sess)
	case "logout":
		return sess.Logout(ctx)
	case "whoami":
		return whoami(ctx, sess)
	case "groups":
		return listGroups(ctx, sess, api)
	case "select":
		return selectGroup(ctx, args, sess, api)
	case "elders":
		return listElders(ctx, args, sess, api)
	case "meds":
		return listMedications(ctx, sess, api)
	case "schedule":
		return showSchedule(ctx, args, sess, api)
	case "logs":
		return listLogs(ctx, sess, api)
	}

	return usage()
}

func usage() error {
	fmt.Println("usage: edoso <command> [args]")
	fmt.Println()
	fmt.Println("  register <email> <name> <password>")
	fmt.Println("  login <email> <password>")
	fmt.Println("  logout")
	fmt.Println("  whoami")
	fmt.Println("  groups")
	fmt.Println("  select <group id>")
	fmt.Println("  elders [name filter]")
	fmt.Println("  meds")
	fmt.Println("  schedule [weekday 0-6, sunday first]")
	fmt.Println("  logs")
	return nil
}

func register(ctx context.Context, args []string, api *client.Client) error {
	if len(args) != 3 {
		return errors.New("usage: edoso register <email> <name> <password>")
	}

	form := forms.RegisterForm{
		Email:           args[0],
		FullName:        args[1],
		Password:        args[2],
		PasswordConfirm: args[2],
	}
	if err := forms.Validate(form); err != nil {
		return err
	}

	err := api.Register(ctx, types.RegisterRequest{
		Email:    form.Email,
		FullName: form.FullName,
		Password: form.Password,
	})
	if err != nil {
		return err
	}

	fmt.Println("registered. now run: edoso login", form.Email, "<password>")
	return nil
}

func login(ctx context.Context, args []string, sess *session.Session) error {
	if len(args) != 2 {
		return errors.New("usage: edoso login <email> <password>")
	}

	form := forms.LoginForm{Email: args[0], Password: args[1]}
	if err := forms.Validate(form); err != nil {
		return err
	}

	profile, err := sess.Login(ctx, form.Email, form.Password)
	if err != nil {
		return err
	}

	fmt.Printf("logged in as %s <%s>\n", profile.FullName, profile.Email)
	return nil
}

func whoami(ctx context.Context, sess *session.Session) error {
	profile, err := sess.CachedProfile(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s <%s>", profile.FullName, profile.Email)
	if sess.IsAdmin(ctx) {
		fmt.Print(" (admin of the selected group)")
	}
	fmt.Println()
	return nil
}

func listGroups(ctx context.Context, sess *session.Session, api *client.Client) error {
	if !sess.Authenticated(ctx) {
		return client.ErrInvalidSession
	}

	groups, err := api.MyGroups(ctx)
	if err != nil {
		return err
	}

	if len(groups) == 0 {
		fmt.Println("no groups yet. create one or join with an access code.")
		return nil
	}

	for _, g := range groups {
		fmt.Printf("%4d  %s (%d members)\n", g.ID, g.Name, len(g.Members))
	}
	return nil
}

func selectGroup(ctx context.Context, args []string, sess *session.Session, api *client.Client) error {
	if len(args) != 1 {
		return errors.New("usage: edoso select <group id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return errors.New("usage: edoso select <group id>")
	}

	g, err := api.Group(ctx, id)
	if err != nil {
		return err
	}

	err = sess.SelectGroup(ctx, g)
	if err != nil {
		return err
	}

	fmt.Printf("selected %s\n", g.Name)
	return nil
}

// listElders drives the same paged controller the screens use, draining all
// pages, then applies the local name filter when one was given.
func listElders(ctx context.Context, args []string, sess *session.Session, api *client.Client) error {
	_, groupID, err := sess.Require(ctx)
	if err != nil {
		return err
	}

	lv := listview.New(
		func(ctx context.Context) (types.Page[types.Elder], error) {
			return api.Elders(ctx, groupID)
		},
		func(ctx context.Context, cursor string) (types.Page[types.Elder], error) {
			return client.FetchPage[types.Elder](ctx, api, cursor)
		},
	)

	err = lv.Refresh(ctx)
	if err != nil {
		return err
	}
	for lv.HasMore() {
		err = lv.LoadMore(ctx)
		if err != nil {
			return err
		}
	}

	elders := lv.Items()
	if len(args) > 0 {
		filter := listview.NewFilter(listview.DefaultDebounce,
			lv.Items,
			func(e types.Elder) string { return e.FullName },
			nil,
		)
		filter.SetQuery(strings.Join(args, " "))
		filter.Flush()
		elders = filter.Matches()
	}

	if len(elders) == 0 {
		fmt.Println("no elders found.")
		return nil
	}

	for _, e := range elders {
		fmt.Printf("%4d  %-30s %s\n", e.ID, e.FullName, e.BirthDate)
	}
	return nil
}

func listMedications(ctx context.Context, sess *session.Session, api *client.Client) error {
	_, groupID, err := sess.Require(ctx)
	if err != nil {
		return err
	}

	page, err := api.Medications(ctx, groupID)
	if err != nil {
		return err
	}

	for _, m := range page.Results {
		fmt.Printf("%4d  %-30s stock: %d\n", m.ID, m.Name, m.StockQuantity)
	}
	return nil
}

func showSchedule(ctx context.Context, args []string, sess *session.Session, api *client.Client) error {
	_, groupID, err := sess.Require(ctx)
	if err != nil {
		return err
	}

	day := time.Now().Weekday()
	if len(args) > 0 {
		d, err := strconv.Atoi(args[0])
		if err != nil || d < 0 || d > 6 {
			return errors.New("usage: edoso schedule [weekday 0-6, sunday first]")
		}
		day = time.Weekday(d)
	}

	page, err := api.Prescriptions(ctx, groupID)
	if err != nil {
		return err
	}

	due := schedule.DayPlan(page.Results, day)
	if len(due) == 0 {
		fmt.Printf("nothing scheduled for %s.\n", day)
		return nil
	}

	fmt.Printf("schedule for %s:\n", day)
	for _, p := range due {
		name := ""
		if p.Medication != nil {
			name = p.Medication.Name
		}
		fmt.Printf("  %s  %-30s %-20s %s\n", p.ScheduledTime, p.Elder, name, p.Dosage)
	}
	return nil
}

func listLogs(ctx context.Context, sess *session.Session, api *client.Client) error {
	_, groupID, err := sess.Require(ctx)
	if err != nil {
		return err
	}

	page, err := api.AdministrationLogs(ctx, groupID)
	if err != nil {
		return err
	}

	for _, entry := range page.Results {
		fmt.Printf("%s  prescription %d  %-12s %s\n",
			entry.Timestamp.Local().Format("2006-01-02 15:04"),
			entry.PrescriptionID, entry.Status, entry.ActingUser)
	}
	return nil
}

func parseExternalConfig(ctx context.Context, flags flagMap) (context.Context, flagMap) {
	// A .env next to the working directory is convenient during development
	_ = godotenv.Load()

	// Allow environment variables to override certain defaults
	envOrDef := env.GetVariableOrDefault

	flags[configFile] = envOrDef(ctx, "EDOSO_CONFIG", flags[configFile])

	if b, err := os.ReadFile(flags[configFile]); err == nil {
		var cfg fileConfig
		if yaml.Unmarshal(b, &cfg) == nil {
			if cfg.ApiURL != "" {
				flags[apiURL] = cfg.ApiURL
			}
			if cfg.DataDir != "" {
				flags[dataDir] = cfg.DataDir
			}
		}
	}

	flags[apiURL] = envOrDef(ctx, "EDOSO_API_URL", flags[apiURL])
	flags[dataDir] = envOrDef(ctx, "EDOSO_DATA_DIR", flags[dataDir])

	apply := func(f flagType) func(string) error {
		return func(value string) error {
			flags[f] = value
			return nil
		}
	}

	// Allow command line arguments to override defaults and environment variables
	flag.Func("api", "base url of the api", apply(apiURL))
	flag.Func("data", "directory holding the session database", apply(dataDir))
	flag.Parse()

	return ctx, flags
}

func exitIf(err error, logger *slog.Logger, msg string, args ...any) {
	if err != nil {
		logger.With(args...).Error(msg, "err", err.Error())
		os.Exit(1)
	}
}
