package providers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pincrawl/pkg/utils"
)

const validResponse = `{
  "info": {
    "title": "Flipper Godzilla Premium",
    "description": "Tres bon etat, peu servi.",
    "amount": 8500,
    "currency": "EUR",
    "city": "Lyon",
    "zipcode": "69003",
    "seller": "Jean",
    "seller_url": "https://www.leboncoin.fr/profil/abc"
  },
  "product": {
    "name": "Godzilla (Premium)",
    "manufacturer": "Stern",
    "year": 2021
  }
}`

func TestParseExtractionResponse(t *testing.T) {
	extraction, err := parseExtractionResponse(validResponse)
	require.NoError(t, err)

	assert.Equal(t, "Flipper Godzilla Premium", extraction.Info.Title)
	require.NotNil(t, extraction.Info.Amount)
	assert.Equal(t, 8500, *extraction.Info.Amount)
	assert.Equal(t, "EUR", extraction.Info.Currency)
	require.NotNil(t, extraction.Info.City)
	assert.Equal(t, "Lyon", *extraction.Info.City)

	require.NotNil(t, extraction.Product)
	assert.Equal(t, "Godzilla (Premium)", extraction.Product.Name)
	assert.Equal(t, "Stern", extraction.Product.Manufacturer)
	require.NotNil(t, extraction.Product.Year)
	assert.Equal(t, 2021, *extraction.Product.Year)
}

func TestParseExtractionResponseStripsCodeFences(t *testing.T) {
	for _, fenced := range []string{
		"```json\n" + validResponse + "\n```",
		"```\n" + validResponse + "\n```",
	} {
		extraction, err := parseExtractionResponse(fenced)
		require.NoError(t, err)
		assert.Equal(t, "Flipper Godzilla Premium", extraction.Info.Title)
	}
}

func TestParseExtractionResponseNullProduct(t *testing.T) {
	extraction, err := parseExtractionResponse(`{"info": {"title": "Lot de pieces"}, "product": null}`)
	require.NoError(t, err)
	assert.Nil(t, extraction.Product)
}

func TestParseExtractionResponseDropsNamelessProduct(t *testing.T) {
	extraction, err := parseExtractionResponse(`{"info": {"title": "Flipper"}, "product": {"name": "", "manufacturer": "Stern"}}`)
	require.NoError(t, err)
	assert.Nil(t, extraction.Product)
}

func TestParseExtractionResponseRejectsMalformedOutput(t *testing.T) {
	cases := []struct {
		name     string
		response string
	}{
		{"empty", ""},
		{"whitespace only", "   \n  "},
		{"not json", "Sorry, I cannot analyze this ad."},
		{"truncated json", `{"info": {"title": "Flip`},
		{"missing title", `{"info": {"description": "no title here"}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseExtractionResponse(tc.response)
			require.Error(t, err)

			var malformed *utils.MalformedExtractionError
			assert.True(t, errors.As(err, &malformed))
		})
	}
}

func TestBuildExtractionPromptEmbedsContent(t *testing.T) {
	prompt := buildExtractionPrompt("# Flipper Godzilla a vendre")
	assert.Contains(t, prompt, "# Flipper Godzilla a vendre")
	assert.Contains(t, prompt, `"product"`)
	assert.Contains(t, prompt, "set the product field to null")
}
