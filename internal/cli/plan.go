package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/huh"

	"github.com/sanchar-ai/hangout-planner/internal/models"
	"github.com/sanchar-ai/hangout-planner/internal/session"
	"github.com/sanchar-ai/hangout-planner/internal/validation"
)

// PlanCmd runs the interactive wizard: collect preferences, generate a plan,
// then refine it over chat until the user quits.
type PlanCmd struct {
	Mood   string `short:"m" help:"Skip the mood prompt (chill|fun|romantic|adventure)."`
	Start  string `short:"s" help:"Skip the start location prompt."`
	NoClip bool   `help:"Do not copy share links to the clipboard."`
}

func (c *PlanCmd) Run(appCtx *Context) error {
	prefs, err := c.collectPreferences()
	if err != nil {
		return err
	}

	ctx := context.Background()
	fmt.Println(assistantStyle.Render("Finding your spots..."))
	s, err := appCtx.Engine.NewSession(ctx, prefs)
	if err != nil {
		return err
	}
	defer s.Close()

	view := s.Snapshot()
	for view.State == session.StateFailed {
		fmt.Println(errorStyle.Render("Plan generation failed: " + view.Err.Error()))
		retry := false
		if err := huh.NewConfirm().Title("Try again?").Value(&retry).Run(); err != nil || !retry {
			return nil
		}
		if err := s.Retry(ctx); err != nil {
			return err
		}
		view = s.Snapshot()
	}

	fmt.Println(renderPlan("Your hangout plan", view.Plan, view.Weather))
	fmt.Println(renderMessages(view.Messages))
	return c.chatLoop(ctx, appCtx, s)
}

// collectPreferences fills in anything not supplied by flags through the form.
func (c *PlanCmd) collectPreferences() (models.Preferences, error) {
	prefs := models.Preferences{
		Mood:          models.Mood(c.Mood),
		StartLocation: c.Start,
	}

	moodOptions := make([]huh.Option[models.Mood], 0, len(models.Moods()))
	for _, m := range models.Moods() {
		moodOptions = append(moodOptions, huh.NewOption(titleCase(string(m)), m))
	}

	var fields []huh.Field
	if prefs.Mood == "" {
		fields = append(fields, huh.NewSelect[models.Mood]().
			Title("What's the vibe?").
			Options(moodOptions...).
			Value(&prefs.Mood))
	}
	fields = append(fields,
		huh.NewInput().
			Title("Budget (₹)").
			Placeholder("1500").
			Value(&prefs.Budget).
			Validate(requireNonEmpty("budget")),
		huh.NewInput().
			Title("Time available").
			Placeholder("4 hours").
			Value(&prefs.TimeAvailable).
			Validate(requireNonEmpty("time available")),
	)
	if prefs.StartLocation == "" {
		fields = append(fields, huh.NewInput().
			Title("Starting from").
			Placeholder("Koramangala").
			Value(&prefs.StartLocation).
			Validate(requireNonEmpty("start location")))
	}
	fields = append(fields, huh.NewInput().
		Title("Preferred area (optional)").
		Placeholder("Indiranagar").
		Value(&prefs.PreferredLocation))

	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return models.Preferences{}, err
	}

	return validation.ValidatePreferences(prefs)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func requireNonEmpty(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// chatLoop reads refinement messages from stdin. Input is read one line at a
// time, so a turn in flight naturally blocks further input until it resolves.
func (c *PlanCmd) chatLoop(ctx context.Context, appCtx *Context, s *session.Session) error {
	fmt.Println(totalsStyle.Render(`Refine your plan, or use /share, /quit.`))
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(userStyle.Render("> "))
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/share":
			c.share(appCtx, s)
			continue
		}

		before := len(s.Snapshot().Messages)
		if err := s.Refine(ctx, line); err != nil {
			if errors.Is(err, session.ErrRefineInFlight) || errors.Is(err, session.ErrNotReady) {
				fmt.Println(errorStyle.Render("Hold on, still working on the last one."))
				continue
			}
			return err
		}

		view := s.Snapshot()
		fmt.Println(renderMessages(view.Messages[before:]))
		if view.Plan != nil {
			fmt.Println(renderPlan("Updated plan", view.Plan, view.Weather))
		}
	}
}

func (c *PlanCmd) share(appCtx *Context, s *session.Session) {
	url, err := s.ShareURL(appCtx.ShareBaseURL)
	if err != nil {
		if errors.Is(err, session.ErrNoPlan) {
			fmt.Println(errorStyle.Render("Nothing to share yet."))
			return
		}
		fmt.Println(errorStyle.Render("Could not build a share link: " + err.Error()))
		return
	}
	fmt.Println(titleStyle.Render("Share link"))
	fmt.Println(itemStyle.Render(url))
	if !c.NoClip {
		if err := clipboard.WriteAll(url); err == nil {
			fmt.Println(totalsStyle.Render("Copied to clipboard."))
		}
	}
}
