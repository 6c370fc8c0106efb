package models

import "testing"

func TestUnknownStatusesFallBackToLabel(t *testing.T) {
	cases := []struct {
		name  string
		label string
	}{
		{"internship", InternshipStatus("archived").Label()},
		{"application", ApplicationStatus("withdrawn").Label()},
		{"storage", StorageStatus("").Label()},
		{"requestType", DocumentRequestType("visa").Label()},
		{"requestStatus", DocumentRequestStatus("lost").Label()},
		{"partnership", PartnershipStatus("paused").Label()},
		{"userType", UserType("ADMIN").Label()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.label != UnknownLabel {
				t.Fatalf("expected %q got %q", UnknownLabel, tc.label)
			}
		})
	}
}

func TestKnownStatusLabels(t *testing.T) {
	if got := ApplicationAccepted.Label(); got != "Accepted" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := InternshipPending.Label(); got != "Pending review" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestParseApplicationStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want ApplicationStatus
		ok   bool
	}{
		{"accepted", ApplicationAccepted, true},
		{"  Interviewing ", ApplicationInterviewing, true},
		{"in_review", ApplicationReviewing, true},
		{"interview", ApplicationInterviewing, true},
		{"hired", "hired", false},
	}

	for _, tc := range cases {
		got, ok := ParseApplicationStatus(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseApplicationStatus(%q) = %q, %v; want %q, %v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestApplicationTransitions(t *testing.T) {
	if !ApplicationPending.CanTransition(ApplicationAccepted) {
		t.Fatal("pending -> accepted should be allowed")
	}
	if !ApplicationReviewing.CanTransition(ApplicationInterviewing) {
		t.Fatal("reviewing -> interviewing should be allowed")
	}
	if ApplicationInterviewing.CanTransition(ApplicationReviewing) {
		t.Fatal("interviewing -> reviewing should be rejected")
	}
	if ApplicationAccepted.CanTransition(ApplicationRejected) {
		t.Fatal("final statuses must not transition")
	}
	if !ApplicationRejected.Final() || ApplicationPending.Final() {
		t.Fatal("unexpected finality")
	}
}

func TestDocumentRequestTransitions(t *testing.T) {
	if !RequestPending.CanTransition(RequestInProgress) {
		t.Fatal("pending -> in_progress should be allowed")
	}
	if RequestCompleted.CanTransition(RequestRejected) {
		t.Fatal("completed requests are final")
	}
}

func TestParseUserTypeIsCaseInsensitive(t *testing.T) {
	got, ok := ParseUserType("school")
	if !ok || got != UserSchool {
		t.Fatalf("expected SCHOOL got %q (%v)", got, ok)
	}
	if _, ok := ParseUserType("admin"); ok {
		t.Fatal("expected unknown user type to be rejected")
	}
}

func TestInternshipVisibility(t *testing.T) {
	internship := Internship{Status: InternshipApproved, IsActive: true}
	if !internship.Visible() {
		t.Fatal("approved active internship should be visible")
	}
	internship.IsActive = false
	if internship.Visible() {
		t.Fatal("inactive internship should be hidden")
	}
}
