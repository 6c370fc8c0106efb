package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/intega/platform/internal/auth"
	"github.com/intega/platform/internal/config"
	"github.com/intega/platform/internal/models"
	"github.com/intega/platform/internal/repositories"
)

// seedPassword is shared by every seeded account.
const seedPassword = "intega-dev-password"

var seedNamespace = uuid.MustParse("6f1d3c52-8a0e-4c1b-9b7e-2d4f5a6b7c8d")

func seedID(name string) string {
	return uuid.NewSHA1(seedNamespace, []byte(name)).String()
}

var seeds = map[string]func(ctx context.Context, st stores, out io.Writer) error{
	"dev": seedDev,
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <name>",
		Short: "Load a named data set (dev)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, ok := seeds[args[0]]
			if !ok {
				return fmt.Errorf("unknown seed %q", args[0])
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Store == config.StoreMemory {
				return errors.New("seeding the memory store has no lasting effect; use INTEGA_STORE=postgres")
			}
			st, pool, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()
			return seed(cmd.Context(), st, cmd.OutOrStdout())
		},
	}
}

func seedDev(ctx context.Context, st stores, out io.Writer) error {
	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	users := []models.User{
		{Username: "ada.student", Email: "ada@student.intega.dev", Type: models.UserStudent},
		{Username: "initech", Email: "jobs@initech.intega.dev", Type: models.UserCompany},
		{Username: "polytech", Email: "office@polytech.intega.dev", Type: models.UserSchool},
	}
	if _, err := st.Users.FindByEmail(ctx, users[0].Email); err == nil {
		fmt.Fprintln(out, "seed dev already applied")
		return nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("check existing seed: %w", err)
	}

	for i := range users {
		users[i].ID = seedID(users[i].Email)
		users[i].Password = hash
		users[i].CreatedAt = now
		users[i].UpdatedAt = now
		if err := st.Users.Create(ctx, users[i]); err != nil {
			return fmt.Errorf("seed user %s: %w", users[i].Username, err)
		}
	}
	student, company, school := users[0], users[1], users[2]

	partnership := models.Partnership{
		ID:        seedID("partnership"),
		SchoolID:  school.ID,
		CompanyID: company.ID,
		Status:    models.PartnershipActive,
		StartDate: now,
	}
	if err := st.Partnerships.Create(ctx, partnership); err != nil {
		return fmt.Errorf("seed partnership: %w", err)
	}

	internships := []models.Internship{
		{Title: "Backend Engineering Intern", Description: "Build Go services behind the placement API.", Location: "Lyon", DurationWeeks: 24, Skills: []string{"Go", "PostgreSQL"}, Status: models.InternshipApproved, IsActive: true},
		{Title: "Frontend Intern", Description: "Ship React features for the student dashboard.", Location: "Remote", DurationWeeks: 12, Skills: []string{"React", "TypeScript"}, Status: models.InternshipApproved, IsActive: true},
		{Title: "Data Analyst Intern", Description: "Analyse placement outcomes across partner schools.", Location: "Paris", DurationWeeks: 16, Skills: []string{"SQL", "Python"}, Status: models.InternshipPending, IsActive: true},
	}
	for i := range internships {
		internships[i].ID = seedID(internships[i].Title)
		internships[i].CompanyID = company.ID
		internships[i].CreatedAt = now
		internships[i].UpdatedAt = now
		if err := st.Internships.Create(ctx, internships[i]); err != nil {
			return fmt.Errorf("seed internship %q: %w", internships[i].Title, err)
		}
	}

	application := models.Application{
		ID:           seedID("application"),
		InternshipID: internships[0].ID,
		StudentID:    student.ID,
		CoverLetter:  "I have been writing Go for two years and would love to join.",
		Status:       models.ApplicationPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := st.Applications.Create(ctx, application); err != nil {
		return fmt.Errorf("seed application: %w", err)
	}

	request := models.DocumentRequest{
		ID:            seedID("document-request"),
		StudentID:     student.ID,
		SchoolID:      school.ID,
		ApplicationID: &application.ID,
		RequestType:   models.RequestInternshipAgreement,
		Message:       "Please prepare the agreement for the backend internship.",
		Status:        models.RequestPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := st.Requests.Create(ctx, request); err != nil {
		return fmt.Errorf("seed document request: %w", err)
	}

	message := models.Message{
		ID:         seedID("message"),
		SenderID:   student.ID,
		ReceiverID: school.ID,
		Content:    "Hello! I just requested my internship agreement.",
		CreatedAt:  now,
	}
	if err := st.Messages.Create(ctx, message); err != nil {
		return fmt.Errorf("seed message: %w", err)
	}

	for _, u := range users {
		fmt.Fprintf(out, "seeded %-8s %s\n", u.Type.Label(), u.Email)
	}
	fmt.Fprintf(out, "password for every account: %s\n", seedPassword)
	return nil
}
