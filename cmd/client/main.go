// Package main is an interactive command-line client for the time ledger API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/timeledger/internal/client"
)

var (
	version   string
	buildDate string
)

const requestTimeout = 10 * time.Second

const helpText = `Available commands:
  signup                 create an account and log in
  login                  log in
  logout                 log out
  me                     show the current user
  entries                list entries
  add <minutes> <name>   record an activity that just ended
  delete <id>            delete an entry
  categories             list categories
  category <name>        create a category
  reflect <text>         write today's reflection
  reflections            list reflections
  export                 print all data as JSON
  delete-account         delete the account and all data
  exit`

// shell holds the state of one interactive session.
type shell struct {
	api     *client.Client
	prompt  *client.Prompter
	session client.SessionFile
	out     io.Writer
	now     func() time.Time
}

// repl runs the interactive shell loop until exit or end of input.
func (s *shell) repl() {
	for {
		line, err := s.prompt.Line("timeledger> ")
		if err != nil {
			return
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			fmt.Fprintln(s.out, "Bye")
			return
		}
		if err := s.run(args); err != nil {
			if client.IsUnauthorized(err) {
				fmt.Fprintln(s.out, "Not logged in. Use 'login' or 'signup'.")
				continue
			}
			fmt.Fprintln(s.out, "error:", err)
		}
	}
}

// run executes one command.
func (s *shell) run(args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	defer s.persist()

	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "signup":
		name, err := s.prompt.Line("Name: ")
		if err != nil {
			return err
		}
		email, err := s.prompt.Line("Email: ")
		if err != nil {
			return err
		}
		password, err := s.prompt.Password("Password: ")
		if err != nil {
			return err
		}
		user, err := s.api.Signup(ctx, name, email, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Welcome, %s\n", user.Name)
	case "login":
		email, err := s.prompt.Line("Email: ")
		if err != nil {
			return err
		}
		password, err := s.prompt.Password("Password: ")
		if err != nil {
			return err
		}
		user, err := s.api.Login(ctx, email, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Logged in as %s\n", user.Email)
	case "logout":
		return s.api.Logout(ctx)
	case "me":
		user, err := s.api.Me(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s <%s>\n", user.Name, user.Email)
	case "entries":
		entries, err := s.api.ListEntries(ctx)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(s.out, "%d\t%s - %s\t%s\t%s\n", e.ID,
				e.StartTime.Local().Format("2006-01-02 15:04"), e.EndTime.Local().Format("15:04"),
				e.ActivityName, e.Category)
		}
	case "add":
		if len(args) < 3 {
			return fmt.Errorf("usage: add <minutes> <name>")
		}
		minutes, err := strconv.Atoi(args[1])
		if err != nil || minutes <= 0 {
			return fmt.Errorf("minutes must be a positive number")
		}
		end := s.now()
		e, err := s.api.CreateEntry(ctx, client.NewEntry{
			StartTime:    end.Add(-time.Duration(minutes) * time.Minute),
			EndTime:      end,
			ActivityName: strings.Join(args[2:], " "),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Entry %d recorded\n", e.ID)
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: delete <id>")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[1])
		}
		if err := s.api.DeleteEntry(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Entry deleted")
	case "categories":
		categories, err := s.api.ListCategories(ctx)
		if err != nil {
			return err
		}
		for _, c := range categories {
			fmt.Fprintf(s.out, "%d\t%s\n", c.ID, c.Name)
		}
	case "category":
		if len(args) < 2 {
			return fmt.Errorf("usage: category <name>")
		}
		c, err := s.api.CreateCategory(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Category %d created\n", c.ID)
	case "reflect":
		if len(args) < 2 {
			return fmt.Errorf("usage: reflect <text>")
		}
		if _, err := s.api.Reflect(ctx, s.now().Format("2006-01-02"), strings.Join(args[1:], " ")); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Reflection saved")
	case "reflections":
		reflections, err := s.api.ListReflections(ctx)
		if err != nil {
			return err
		}
		for _, r := range reflections {
			fmt.Fprintf(s.out, "%s\t%s\n", r.Date, r.Content)
		}
	case "export":
		data, err := s.api.Export(ctx)
		if err != nil {
			return err
		}
		b, _ := json.MarshalIndent(data, "", "  ")
		fmt.Fprintln(s.out, string(b))
	case "delete-account":
		answer, err := s.prompt.Line("Type 'yes' to delete your account and all data: ")
		if err != nil {
			return err
		}
		if answer != "yes" {
			fmt.Fprintln(s.out, "Cancelled")
			return nil
		}
		if err := s.api.DeleteAccount(ctx); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Account deleted")
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
	return nil
}

// persist saves the current token so the next run stays logged in.
func (s *shell) persist() {
	if err := s.session.Save(s.api.BaseURL, s.api.Token); err != nil {
		fmt.Fprintln(s.out, "warning: cannot save session:", err)
	}
}

// main parses command-line flags and starts the shell.
func main() {
	var (
		baseURL     string
		caFile      string
		sessionPath string
		showVer     bool
	)

	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&caFile, "ca", "", "path to a CA or self-signed server certificate to trust")
	flag.StringVar(&sessionPath, "session", client.DefaultSessionPath(), "file that keeps the session between runs")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Timeledger Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	httpClient, err := client.NewHTTPClient(caFile)
	if err != nil {
		log.Fatal(err)
	}
	api := client.New(strings.TrimRight(baseURL, "/"), httpClient)

	session := client.SessionFile{Path: sessionPath}
	if api.Token, err = session.Load(api.BaseURL); err != nil {
		log.Printf("ignoring saved session: %v", err)
	}

	sh := &shell{
		api:     api,
		prompt:  client.NewPrompter(os.Stdin, os.Stdout),
		session: session,
		out:     os.Stdout,
		now:     time.Now,
	}
	sh.repl()
}
