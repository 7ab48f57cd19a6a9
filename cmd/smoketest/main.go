package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/openstax/staxing/internal/browser"
	"github.com/openstax/staxing/internal/config"
	"github.com/openstax/staxing/internal/roles"
)

// smoketest logs the configured teacher in against the target deployment
// and opens the calendar. It exits nonzero when any step fails, making it
// usable as a CI preflight before the full run suite.
func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	cfg, err := config.LoadConfig("")
	if err != nil {
		sugar.Fatalw("load config", "error", err)
	}
	if cfg.Tutor.Teacher.Username == "" {
		sugar.Fatal("no teacher account configured; set TEACHER_USER and TEACHER_PASSWORD")
	}

	browsers, err := browser.NewManager(&cfg.Browser, sugar)
	if err != nil {
		sugar.Fatalw("browser manager", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	sess, err := browsers.NewSession(ctx)
	if err != nil {
		sugar.Fatalw("browser session", "error", err)
	}
	defer sess.Close()

	teacher, err := roles.NewTeacher(sess, cfg.Tutor.Teacher, cfg.Tutor.ServerURL, sugar)
	if err != nil {
		sugar.Fatalw("teacher setup", "error", err)
	}
	if err := teacher.Login(); err != nil {
		sugar.Fatalw("login", "error", err)
	}
	sugar.Info("login succeeded")

	courses, err := teacher.CourseList()
	if err != nil {
		sugar.Warnw("course list unavailable", "error", err)
	} else {
		sugar.Infow("courses visible", "count", len(courses), "titles", courses)
	}

	if len(courses) > 0 {
		if err := teacher.SelectCourse(courses[0], ""); err != nil {
			sugar.Fatalw("select course", "error", err)
		}
		if err := teacher.GotoCalendar(); err != nil {
			sugar.Fatalw("open calendar", "error", err)
		}
		month, year, err := teacher.CalendarMonth()
		if err != nil {
			sugar.Fatalw("read calendar", "error", err)
		}
		sugar.Infow("calendar open", "month", month.String(), "year", year)
	}

	if err := teacher.Logout(); err != nil {
		sugar.Warnw("logout", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Browser.ShutdownTimeout)
	defer shutdownCancel()
	sess.Close()
	if err := browsers.Shutdown(shutdownCtx); err != nil {
		sugar.Warnw("browser shutdown", "error", err)
	}
	sugar.Info("smoke test passed")
}
