package utils

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tote-sponsor-system/models"
)

func TestNormalizeIdentifier(t *testing.T) {
	cases := []struct {
		name string
		kind models.IdentifierKind
		in   string
		want string
		err  error
	}{
		{"plain phone", models.IdentifierPhone, "9876543210", "9876543210", nil},
		{"country code", models.IdentifierPhone, "+91 98765-43210", "9876543210", nil},
		{"trunk prefix", models.IdentifierPhone, "09876543210", "9876543210", nil},
		{"full width digits", models.IdentifierPhone, "９８７６５４３２１０", "9876543210", nil},
		{"short phone", models.IdentifierPhone, "12345", "", ErrInvalidPhone},
		{"letters", models.IdentifierPhone, "98765abc10", "", ErrInvalidPhone},
		{"aadhaar", models.IdentifierAadhaar, "1234 5678 9012", "123456789012", nil},
		{"short aadhaar", models.IdentifierAadhaar, "1234 5678", "", ErrInvalidAadhaar},
		{"unknown kind", models.IdentifierKind("email"), "123", "", ErrUnknownKind},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeIdentifier(tc.kind, tc.in)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHashIdentifier(t *testing.T) {
	secret := []byte("s3cret")

	a := HashIdentifier(secret, models.IdentifierPhone, "9876543210")
	b := HashIdentifier(secret, models.IdentifierPhone, "9876543210")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	assert.NotEqual(t, a, HashIdentifier([]byte("other"), models.IdentifierPhone, "9876543210"))
	assert.NotEqual(t, a, HashIdentifier(secret, models.IdentifierAadhaar, "9876543210"))
}

func TestMaskIdentifier(t *testing.T) {
	assert.Equal(t, "******3210", MaskIdentifier("9876543210"))
	assert.Equal(t, "***", MaskIdentifier("123"))
}

func TestShareHelpers(t *testing.T) {
	link := CauseShareLink("https://totes.example", "abc-123", "school-bags")
	assert.Equal(t, "https://totes.example/cause/abc-123?s=school-bags", link)

	shares := BuildSocialShares(link, "School bags")
	assert.True(t, strings.HasPrefix(shares.Twitter, "https://twitter.com/intent/tweet?url="))
	assert.Contains(t, shares.WhatsApp, "Support+this+cause")

	dataURL, err := QRCodeDataURL(link)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	var got Pagination
	app.Get("/", func(c *fiber.Ctx) error {
		got = ParsePagination(c)
		return nil
	})

	_, err := app.Test(httptest.NewRequest("GET", "/?page=3&limit=500", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 3, Limit: MaxPageSize}, got)

	_, err = app.Test(httptest.NewRequest("GET", "/?page=-1&limit=abc", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 1, Limit: DefaultPageSize}, got)
}

func TestPaginationInfo(t *testing.T) {
	p := NormalizePagination(2, 10)
	assert.Equal(t, 10, p.Offset())
	assert.Equal(t, PageInfo{Total: 21, Page: 2, Pages: 3, Limit: 10}, p.Info(21))
	assert.Equal(t, 0, p.Info(0).Pages)
}
