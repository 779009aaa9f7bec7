package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/erazemk/omara/internal/client"
	"github.com/erazemk/omara/internal/model"
)

// prompter reads answers from the command's input.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

func newPrompter(cmd *cobra.Command) *prompter {
	p := &prompter{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.ErrOrStderr()}
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.tty = true
	}
	return p
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || s == "") {
		return "", fmt.Errorf("reading %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(s), nil
}

// password reads without echo on a terminal.
func (p *prompter) password(label string) (string, error) {
	if !p.tty {
		return p.line(label)
	}
	fmt.Fprint(p.out, label)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

func (p *prompter) credentials(email string, confirm bool) (client.Credentials, error) {
	var err error
	if email == "" {
		if email, err = p.line("Email: "); err != nil {
			return client.Credentials{}, err
		}
	}
	if err := model.ValidateEmail(email); err != nil {
		return client.Credentials{}, err
	}

	password, err := p.password("Password: ")
	if err != nil {
		return client.Credentials{}, err
	}
	if confirm && p.tty {
		again, err := p.password("Repeat password: ")
		if err != nil {
			return client.Credentials{}, err
		}
		if again != password {
			return client.Credentials{}, errors.New("passwords do not match")
		}
	}
	return client.Credentials{Email: email, Password: password}, nil
}

func newLoginCmd(g *globals) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			creds, err := newPrompter(cmd).credentials(email, false)
			if err != nil {
				return err
			}
			if err := s.app.Guard.Login(cmd.Context(), creds); err != nil {
				if errors.Is(err, client.ErrUnauthorized) {
					return errors.New("login failed: check your email and password")
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", creds.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	return cmd
}

func newRegisterCmd(g *globals) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			creds, err := newPrompter(cmd).credentials(email, true)
			if err != nil {
				return err
			}
			if err := model.ValidatePassword(creds.Password); err != nil {
				return err
			}
			if err := s.app.Guard.Register(cmd.Context(), creds); err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account created. Run 'omara login' to sign in.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	return cmd
}

func newLogoutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if !s.app.Guard.State().Authenticated {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			if err := s.app.Guard.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newStatusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the server and session in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server:     %s\n", s.cfg.APIURL)
			fmt.Fprintf(out, "Token file: %s\n", s.cfg.TokenFile)
			if s.app.Guard.State().Authenticated {
				fmt.Fprintln(out, "Session:    logged in")
			} else {
				fmt.Fprintln(out, "Session:    logged out")
			}
			return nil
		},
	}
}
