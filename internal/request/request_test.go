package request

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type priced struct {
	Price  Amount  `json:"price"`
	Refund *Amount `json:"refund"`
}

func TestAmountAcceptsNumbersOnly(t *testing.T) {
	var p priced
	require.NoError(t, json.Unmarshal([]byte(`{"price": 12500.50}`), &p))
	assert.True(t, p.Price.Equal(decimal.RequireFromString("12500.5")))
	assert.Nil(t, p.Refund)
	assert.Nil(t, p.Refund.Ptr())

	require.NoError(t, json.Unmarshal([]byte(`{"price": 1, "refund": 250}`), &p))
	require.NotNil(t, p.Refund.Ptr())
	assert.True(t, p.Refund.Ptr().Equal(decimal.NewFromInt(250)))

	for _, body := range []string{
		`{"price": "1000"}`,
		`{"price": 1, "refund": "250"}`,
		`{"price": true}`,
	} {
		var p priced
		assert.Error(t, json.Unmarshal([]byte(body), &p), body)
	}
}

func TestBoundedInt(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		n, err := BoundedInt(c, "limit", 50, 1000)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"limit": n})
	})

	cases := map[string]struct {
		status int
		limit  int
	}{
		"":             {fiber.StatusOK, 50},
		"?limit=":      {fiber.StatusOK, 50},
		"?limit=1":     {fiber.StatusOK, 1},
		"?limit=1000":  {fiber.StatusOK, 1000},
		"?limit=0":     {fiber.StatusBadRequest, 0},
		"?limit=-5":    {fiber.StatusBadRequest, 0},
		"?limit=1001":  {fiber.StatusBadRequest, 0},
		"?limit=abc":   {fiber.StatusBadRequest, 0},
		"?limit=10abc": {fiber.StatusBadRequest, 0},
	}
	for query, want := range cases {
		resp, err := app.Test(httptest.NewRequest("GET", "/"+query, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, want.status, resp.StatusCode, query)
		if want.status == fiber.StatusOK {
			var body struct {
				Limit int `json:"limit"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, want.limit, body.Limit, query)
		}
		resp.Body.Close()
	}
}
