package btcmarkets

import (
	"errors"
	"testing"

	"coinbridge/trading"
)

func TestClassifyErrorExactCode(t *testing.T) {
	err := classifyError([]byte(`{"code":"OrderNotFound","message":"order 42 does not exist"}`))
	if !errors.Is(err, trading.ErrOrderNotFound) {
		t.Fatalf("classifyError = %v, want ErrOrderNotFound", err)
	}
	var detail *trading.Error
	if !errors.As(err, &detail) {
		t.Fatal("classified error does not expose vendor detail")
	}
	if detail.Code != "OrderNotFound" || detail.Message != "order 42 does not exist" {
		t.Errorf("vendor detail lost: code=%q message=%q", detail.Code, detail.Message)
	}
}

func TestClassifyErrorByKind(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{"InsufficientFund", trading.ErrInsufficientFunds},
		{"InvalidPrice", trading.ErrInvalidOrder},
		{"InvalidAmount", trading.ErrInvalidOrder},
		{"OrderAlreadyCancelled", trading.ErrInvalidOrder},
		{"OrderStatusIsFinal", trading.ErrInvalidOrder},
		{"MissingArgument", trading.ErrBadRequest},
		{"InvalidPaginationParameter", trading.ErrBadRequest},
	}
	for _, tc := range cases {
		err := classifyError([]byte(`{"code":"` + tc.code + `","message":"detail"}`))
		if !errors.Is(err, tc.want) {
			t.Errorf("code %s: classifyError = %v, want %v", tc.code, err, tc.want)
		}
	}
}

func TestClassifyErrorExactMessageWins(t *testing.T) {
	// The message matches an exact rule even though the code is opaque.
	err := classifyError([]byte(`{"code":"06007","message":"InsufficientFund"}`))
	if !errors.Is(err, trading.ErrInsufficientFunds) {
		t.Fatalf("classifyError = %v, want ErrInsufficientFunds", err)
	}
}

func TestClassifyErrorUnknownCode(t *testing.T) {
	err := classifyError([]byte(`{"code":"SomethingNew","message":"never seen before"}`))
	if !errors.Is(err, trading.ErrExchange) {
		t.Fatalf("classifyError = %v, want generic ErrExchange", err)
	}
	var detail *trading.Error
	if !errors.As(err, &detail) {
		t.Fatal("classified error does not expose vendor detail")
	}
	if detail.Code != "SomethingNew" || detail.Message != "never seen before" {
		t.Errorf("vendor detail lost: code=%q message=%q", detail.Code, detail.Message)
	}
}

func TestClassifyErrorNonErrorPayloads(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"array response", `[{"marketId":"BTC-AUD"}]`},
		{"object without code", `{"marketId":"BTC-AUD","lastPrice":"0.3769"}`},
		{"empty object", `{}`},
		{"not json", `<html>rate limited</html>`},
	}
	for _, tc := range cases {
		if err := classifyError([]byte(tc.body)); err != nil {
			t.Errorf("%s: classifyError = %v, want nil", tc.name, err)
		}
	}
}
