package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"pincrawl/pkg/models"
	"pincrawl/pkg/utils"
)

// buildExtractionPrompt creates the instruction prompt shared by all providers
func buildExtractionPrompt(content string) string {
	return fmt.Sprintf(`You are an expert at analyzing pinball machine ads and extracting structured information.

Here is a scraped ad in markdown format:

`+"```markdown\n%s\n```"+`

Please analyze the ad text and:

1. AD INFORMATION - Extract these details from the ad:
- title: A clear, concise title for this ad (what would appear as the listing title)
- description: The main description text of the ad (without title, price, location)
- price: The asking price (extract amount and currency)
- location: The location where the item is located (extract city and zipcode)
- seller: The seller's display name and profile URL if present

2. PRODUCT IDENTIFICATION: The pinball machine being sold:
- Identify the specific pinball machine name
- Determine the manufacturer
- Determine the year of release

Return your response as a JSON object with this exact structure:
{
"info": {
    "title": "extracted ad title. Escape double quotes with a backslash and remove non-ascii chars.",
    "description": "extracted ad description. Escape double quotes with a backslash and remove non-ascii chars. Transform newlines to spaces.",
    "amount": "extracted price amount without currency as an integer or null if not found",
    "currency": "EUR",
    "city": "location city name or null",
    "zipcode": "location zipcode as a string or null",
    "seller": "seller display name or null",
    "seller_url": "seller profile URL or null"
},
"product": {
    "name": "exact product name (should match exactly a known product name)",
    "manufacturer": "manufacturer name",
    "year": "year of release as an integer or null"
}
}

Extract ad information even if you cannot identify the specific pinball machine.
If you cannot identify a pinball machine, set the product field to null.
Only return valid JSON - no additional text or formatting (do not add fenced code blocks).`, content)
}

// parseExtractionResponse parses the raw model output into an Extraction.
// Partial or malformed output is a hard failure, never coerced to defaults.
func parseExtractionResponse(responseText string) (*models.Extraction, error) {
	responseText = strings.TrimSpace(responseText)

	if responseText == "" {
		return nil, utils.NewMalformedExtractionError("empty response", nil)
	}

	// Some models wrap JSON in code fences despite instructions
	if strings.HasPrefix(responseText, "```json") {
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)
	} else if strings.HasPrefix(responseText, "```") {
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)
	}

	var extraction models.Extraction
	if err := json.Unmarshal([]byte(responseText), &extraction); err != nil {
		return nil, utils.NewMalformedExtractionError("response is not valid JSON", err)
	}

	if extraction.Info.Title == "" {
		return nil, utils.NewMalformedExtractionError("missing info.title in response", nil)
	}

	// A product guess without a name is no guess at all
	if extraction.Product != nil && extraction.Product.Name == "" {
		extraction.Product = nil
	}

	return &extraction, nil
}
