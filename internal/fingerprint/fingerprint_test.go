package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/presence-scanner/internal/model"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"lowercase passthrough", "acme", "acme"},
		{"mixed case", "Acme Corp", "acme corp"},
		{"punctuation stripped", "Acme, Corp. & Sons!", "acme corp sons"},
		{"whitespace collapsed", "  Acme   Corp  ", "acme corp"},
		{"diacritics folded", "Café Müller", "cafe muller"},
		{"digits kept", "Studio 54", "studio 54"},
		{"only punctuation", "!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestNormalizeTextIdempotent(t *testing.T) {
	for _, in := range []string{"Acme Corp", "Café Müller", "  a  b  ", "studio 54"} {
		once := NormalizeText(in)
		assert.Equal(t, once, NormalizeText(once))
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "15551234567", NormalizePhone("+1 (555) 123-4567"))
	assert.Equal(t, "5551234567", NormalizePhone("555.123.4567"))
	assert.Equal(t, "", NormalizePhone(""))
	assert.Equal(t, "", NormalizePhone("no digits here"))
}

func TestRootDomain(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"bare host", "acme.com", "acme.com"},
		{"https with www", "https://www.acme.com", "acme.com"},
		{"http with path", "http://acme.com/about?ref=x", "acme.com"},
		{"uppercase host", "HTTPS://WWW.ACME.COM", "acme.com"},
		{"subdomain kept", "https://shop.acme.com", "shop.acme.com"},
		{"whitespace trimmed", "  acme.com  ", "acme.com"},
		{"unparseable", "http://[bad", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RootDomain(tt.in))
		})
	}
}

func TestNewIsTotal(t *testing.T) {
	fp := New(model.BusinessInput{})
	assert.Equal(t, Fingerprint{}, fp)

	fp = New(model.BusinessInput{
		Name:    "Café Acme, Inc.",
		Phone:   "+1 (555) 123-4567",
		Website: "https://www.acme.com/home",
		Address: "123 Main St.",
		City:    "Springfield",
		Country: "USA",
	})
	assert.Equal(t, Fingerprint{
		Name:    "cafe acme inc",
		Phone:   "15551234567",
		Domain:  "acme.com",
		Address: "123 main st",
		City:    "springfield",
		Country: "usa",
	}, fp)
}
