package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/presence-scanner/internal/model"
)

func TestReconcileEmptyInputs(t *testing.T) {
	out := Reconcile(model.BusinessInput{}, model.HarvestedData{})

	assert.Empty(t, out.BusinessInfo.VerifiedFields)
	assert.NotNil(t, out.BusinessInfo.VerifiedFields)
	assert.NotNil(t, out.SocialLinks)
	assert.Empty(t, out.ContactDetails.Emails.Primary)
	assert.NotNil(t, out.ContactDetails.Emails.Secondary)
	assert.Zero(t, out.ConfidenceScore)
}

func TestReconcileUserValueStaysPrimary(t *testing.T) {
	out := Reconcile(
		model.BusinessInput{Email: "owner@acme.com"},
		model.HarvestedData{Emails: []string{"info@acme.com", "sales@acme.com"}},
	)

	assert.Equal(t, "owner@acme.com", out.ContactDetails.Emails.Primary)
	assert.False(t, out.ContactDetails.Emails.Verified)
	assert.Equal(t, []string{"info@acme.com", "sales@acme.com"}, out.ContactDetails.Emails.Secondary)
}

func TestReconcileEmailVerifiedCaseInsensitive(t *testing.T) {
	out := Reconcile(
		model.BusinessInput{Email: "info@acme.com"},
		model.HarvestedData{Emails: []string{"Info@Acme.com", "sales@acme.com"}},
	)

	assert.True(t, out.ContactDetails.Emails.Verified)
	assert.Contains(t, out.BusinessInfo.VerifiedFields, "email")
	// The corroborating entry is the primary and never repeats as secondary.
	assert.Equal(t, []string{"sales@acme.com"}, out.ContactDetails.Emails.Secondary)
}

func TestReconcileAdoptsFirstHarvestedWhenAbsent(t *testing.T) {
	out := Reconcile(
		model.BusinessInput{},
		model.HarvestedData{
			Emails: []string{"info@acme.com", "sales@acme.com", "info@acme.com"},
			Phones: []string{"555-123-4567", "555-999-0000"},
		},
	)

	assert.Equal(t, "info@acme.com", out.ContactDetails.Emails.Primary)
	assert.False(t, out.ContactDetails.Emails.Verified)
	assert.Equal(t, []string{"sales@acme.com"}, out.ContactDetails.Emails.Secondary)

	assert.Equal(t, "555-123-4567", out.ContactDetails.Phones.Primary)
	assert.Equal(t, []string{"555-999-0000"}, out.ContactDetails.Phones.Secondary)
}

func TestReconcilePhoneVerifiedByDigitContainment(t *testing.T) {
	out := Reconcile(
		model.BusinessInput{Phone: "5551234567"},
		model.HarvestedData{Phones: []string{"+1 (555) 123-4567"}},
	)

	assert.True(t, out.ContactDetails.Phones.Verified)
	assert.Contains(t, out.BusinessInfo.VerifiedFields, "phone")
	assert.Equal(t, "5551234567", out.ContactDetails.Phones.Primary)
	// Same digits in a different format are not a distinct secondary.
	assert.Empty(t, out.ContactDetails.Phones.Secondary)
}

func TestReconcilePhoneShorterUserValue(t *testing.T) {
	out := Reconcile(
		model.BusinessInput{Phone: "15551234567"},
		model.HarvestedData{Phones: []string{"555-123-4567"}},
	)

	assert.True(t, out.ContactDetails.Phones.Verified)
}

func TestReconcilePhoneSecondaryDedupedByDigits(t *testing.T) {
	out := Reconcile(
		model.BusinessInput{Phone: "5551234567"},
		model.HarvestedData{Phones: []string{"555-999-0000", "(555) 999-0000", "555 111 2222"}},
	)

	assert.Equal(t, []string{"555-999-0000", "555 111 2222"}, out.ContactDetails.Phones.Secondary)
}

func TestReconcileAddressVerifiedByContainment(t *testing.T) {
	out := Reconcile(
		model.BusinessInput{Address: "123 Main St"},
		model.HarvestedData{Addresses: []string{"123 Main St, Springfield, IL 62701"}},
	)

	assert.True(t, out.ContactDetails.Addresses.Verified)
	assert.Contains(t, out.BusinessInfo.VerifiedFields, "address")
	assert.Equal(t, "123 Main St", out.ContactDetails.Addresses.Primary)
}

func TestReconcileWebsiteSelfVerifying(t *testing.T) {
	out := Reconcile(model.BusinessInput{Website: "https://acme.com"}, model.HarvestedData{})
	assert.Equal(t, []string{"website"}, out.BusinessInfo.VerifiedFields)

	out = Reconcile(model.BusinessInput{}, model.HarvestedData{})
	assert.NotContains(t, out.BusinessInfo.VerifiedFields, "website")
}

func TestReconcileSocialLinksPassThrough(t *testing.T) {
	social := []model.SocialEntry{
		{Platform: "FACEBOOK", Found: true, URL: "https://facebook.com/acme", MatchScore: 100},
		{Platform: "YELP", Found: false},
	}
	out := Reconcile(model.BusinessInput{}, model.HarvestedData{Social: social})
	assert.Equal(t, social, out.SocialLinks)
}

func TestReconcileDoesNotMutateInputs(t *testing.T) {
	business := model.BusinessInput{Name: "Acme Corp", Email: "info@acme.com"}
	harvested := model.HarvestedData{
		Emails: []string{"Info@Acme.com", "sales@acme.com"},
		Phones: []string{"555-123-4567"},
	}

	first := Reconcile(business, harvested)
	second := Reconcile(business, harvested)

	require.Equal(t, first, second)
	assert.Equal(t, []string{"Info@Acme.com", "sales@acme.com"}, harvested.Emails)
}
