package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/wherewego/internal/client"
	"github.com/Freeeeeet/wherewego/internal/model"
	"github.com/Freeeeeet/wherewego/internal/search"
	"github.com/Freeeeeet/wherewego/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search students or schools from the terminal",
	Long: `Search the roster interactively. Results arrive a page at a time while you type;
ctrl+n loads the next page. Credentials come from flags or WWG_IDENTIFIER / WWG_PASSWORD.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("server", "http://localhost:8080", "API base url")
	searchCmd.Flags().String("identifier", "", "email or phone number to log in with")
	searchCmd.Flags().String("password", "", "password (prefer WWG_PASSWORD)")
	searchCmd.Flags().String("lang", "en", "language of error messages (en or zh)")
	searchCmd.Flags().Bool("schools", false, "search schools instead of students (no login needed)")
	searchCmd.Flags().Int("limit", search.DefaultLimit, "page size")
	searchCmd.Flags().Duration("interval", search.DefaultInterval, "minimum pause between searches while typing")

	for _, name := range []string{"server", "identifier", "password", "lang"} {
		_ = searchViper.BindPFlag(name, searchCmd.Flags().Lookup(name))
	}
	searchViper.SetEnvPrefix("wwg")
	searchViper.AutomaticEnv()

	rootCmd.AddCommand(searchCmd)
}

var searchViper = viper.New()

func runSearch(cmd *cobra.Command, args []string) error {
	// Опрос фона терминала до старта программы, иначе ответ OSC 11 попадает в поле ввода
	_ = lipgloss.HasDarkBackground()

	ctx := cmd.Context()
	schools, _ := cmd.Flags().GetBool("schools")
	limit, _ := cmd.Flags().GetInt("limit")
	interval, _ := cmd.Flags().GetDuration("interval")

	c, err := client.New(searchViper.GetString("server"), client.WithLanguage(searchViper.GetString("lang")))
	if err != nil {
		return err
	}

	var initial string
	if len(args) == 1 {
		initial = args[0]
	}

	if schools {
		m := tui.New[*model.School](ctx, c.SearchSchools, tui.Options[*model.School]{
			Title:       "Schools",
			Limit:       limit,
			Interval:    interval,
			InitialText: initial,
			Format:      formatSchool,
		})
		return runProgram(m, m.Close)
	}

	identifier := searchViper.GetString("identifier")
	password := searchViper.GetString("password")
	if identifier == "" || password == "" {
		return errors.New("student search needs --identifier and a password (WWG_PASSWORD)")
	}

	loginCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	me, err := c.Login(loginCtx, identifier, password)
	cancel()
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer func() { _ = c.Logout(context.WithoutCancel(ctx)) }()

	m := tui.New[model.StudentBrief](ctx, c.SearchStudents, tui.Options[model.StudentBrief]{
		Title:       fmt.Sprintf("Students visible to %s", me.Name),
		Limit:       limit,
		Interval:    interval,
		InitialText: initial,
		Format:      formatStudent,
	})
	return runProgram(m, m.Close)
}

func runProgram(m tea.Model, closeFn func()) error {
	defer closeFn()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running search: %w", err)
	}
	return nil
}

func formatStudent(s model.StudentBrief) string {
	line := fmt.Sprintf("%s · class %d/%d", s.Name, s.ClassNumber, s.GradYear)
	if s.Curriculum != "" {
		line += " · " + s.Curriculum
	}
	if s.SchoolName != "" {
		line += " · " + s.SchoolName
	}
	return line
}

func formatSchool(s *model.School) string {
	switch {
	case s.City != "" && s.Country != "":
		return fmt.Sprintf("%s (%s, %s)", s.Name, s.City, s.Country)
	case s.Country != "":
		return fmt.Sprintf("%s (%s)", s.Name, s.Country)
	}
	return s.Name
}
