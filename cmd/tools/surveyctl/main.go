package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/researchloop/outreach/backend/internal/config"
	"github.com/researchloop/outreach/backend/internal/model/session"
	model "github.com/researchloop/outreach/backend/internal/model/submission"
	surveymodel "github.com/researchloop/outreach/backend/internal/model/survey"
	"github.com/researchloop/outreach/backend/internal/service/gate"
	"github.com/researchloop/outreach/backend/internal/service/submission"
	"github.com/researchloop/outreach/backend/internal/service/survey"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] failed to load .env, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	api := flag.String("api", "http://localhost:8080", "survey API base URL")
	token := flag.String("token", "", "survey access token (use \"preview\" for a dry run)")
	utmFlag := flag.String("utm", "", "campaign parameters, e.g. utm_source=mail,utm_campaign=fall")
	referrer := flag.String("referrer", "", "referrer recorded with the submission")
	successURL := flag.String("success", cfg.Survey.SuccessURL, "page to continue to after submitting")
	interestURL := flag.String("interest", "", "optional interest link to print with tracking parameters")
	timeout := flag.Duration("timeout", 15*time.Second, "request timeout")
	flag.Parse()

	utm := parseUTM(*utmFlag)
	ctx := context.Background()

	openCtx, cancel := context.WithTimeout(ctx, *timeout)
	sess, err := gate.New(*api).Open(openCtx, *token, utm)
	cancel()
	if err != nil {
		var disabled *gate.DisabledError
		if errors.As(err, &disabled) {
			state := survey.DisabledState(disabled.Reason)
			fmt.Printf("Survey unavailable: %s\n", state.Message)
			os.Exit(1)
		}
		log.Fatalf("session exchange failed: %v", err)
	}

	in := bufio.NewScanner(os.Stdin)
	out := bufio.NewWriter(os.Stdout)
	p := &prompter{in: in, out: out}

	if !p.confirm(fmt.Sprintf("I have read the research consent (version %s) and agree to take part. [y/N] ", sess.ConsentVersion), false) {
		p.println("Consent is required to continue.")
		out.Flush()
		os.Exit(1)
	}
	consentAt := time.Now()

	storage := submission.NewMemoryStorage()
	dispatcher, err := submission.NewDispatcher(*api, *successURL, storage)
	if err != nil {
		log.Fatalf("bad -success value: %v", err)
	}
	meta := model.Metadata{
		UTM:         sess.UTM,
		Referrer:    *referrer,
		LandingPath: "/survey",
		UserAgent:   "surveyctl",
	}

	reg := survey.Default()
	ctrl := survey.NewController(reg, sess.Preview, func(ctx context.Context, answers surveymodel.Answers) (string, error) {
		meta.SandboxVisited = answers.First(survey.FieldSandboxRating) != ""
		payload := submission.Build(sess, answers, consentAt, meta)
		submitCtx, cancel := context.WithTimeout(ctx, *timeout)
		defer cancel()
		return dispatcher.Submit(submitCtx, payload)
	})

	if sess.Preview {
		p.println("Preview session: nothing you enter will be stored.")
	}
	greet(p, sess)

	if err := run(ctx, p, reg, ctrl); err != nil {
		out.Flush()
		log.Fatalf("survey aborted: %v", err)
	}

	if *interestURL != "" {
		link, err := submission.TrackInterestClick(storage, *interestURL, sess.UTM)
		if err != nil {
			log.Printf("[WARN] could not build interest link: %v", err)
		} else {
			p.printf("Want to hear more? %s\n", link)
		}
	}
	out.Flush()
}

func greet(p *prompter, sess session.Session) {
	if sess.Subject != nil && sess.Subject.Name != "" {
		p.printf("Welcome, %s.\n", sess.Subject.Name)
	}
}

// run drives the wizard until it succeeds or input ends.
func run(ctx context.Context, p *prompter, reg *survey.Registry, ctrl *survey.Controller) error {
	for {
		s := ctrl.State()
		switch s.Phase {
		case survey.Succeeded:
			p.println("Thank you! Your answers were recorded.")
			p.printf("Continue at: %s\n", ctrl.Redirect())
			return nil
		case survey.Failed:
			p.printf("Submission failed: %s\n", s.Message)
			if !p.confirm("Try again? [Y/n] ", true) {
				return errors.New("submission abandoned")
			}
			ctrl.Retry()
			if _, err := ctrl.Next(ctx); err != nil {
				return err
			}
			continue
		}

		pct, label := survey.Progress(s)
		step := s.Current()
		p.printf("\n== %s: %s (%d%%) ==\n", label, step.Title, pct)

		back, err := fillStep(p, reg, ctrl, step.Fields)
		if err != nil {
			return err
		}
		if back {
			if _, err := ctrl.Back(); err != nil {
				return err
			}
			continue
		}

		next, err := ctrl.Next(ctx)
		if err != nil {
			return err
		}
		if next.Phase == survey.Editing && next.Message != "" {
			p.println(next.Message)
		}
	}
}

// fillStep asks for every visible field of the step. It reports true when
// the participant typed "back".
func fillStep(p *prompter, reg *survey.Registry, ctrl *survey.Controller, fields []string) (bool, error) {
	for _, name := range fields {
		if !reg.Visible(name, ctrl.State().Answers) {
			continue
		}
		f, _ := reg.Field(name)
		line, ok := p.ask(describe(f, ctrl.State().Answers))
		if !ok {
			return false, errors.New("input closed")
		}
		if strings.EqualFold(line, "back") {
			return true, nil
		}
		if line == "" {
			continue
		}
		values, err := parseAnswer(f, line)
		if err != nil {
			p.println(err.Error())
			return fillStep(p, reg, ctrl, fields)
		}
		ctrl.Set(name, values...)
	}
	return false, nil
}
