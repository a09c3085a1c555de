// Package paypal checks that an email address belongs to a PayPal account
// with a confirmed postal address, using the classic NVP AddressVerify call.
package paypal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiVersion = "204.0"

// Result is the outcome of an AddressVerify call.
type Result struct {
	Confirmed   bool
	Code        string // CONFIRMATIONCODE
	StreetMatch string
	ZipMatch    string
}

var ErrRejected = errors.New("paypal rejected the request")

type Config struct {
	Endpoint   string
	User       string
	Password   string
	Signature  string
	HTTPClient *http.Client
}

type AddressVerifier struct {
	cfg  Config
	http *http.Client
}

func NewAddressVerifier(cfg Config) *AddressVerifier {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &AddressVerifier{cfg: cfg, http: hc}
}

// Verify calls AddressVerify. Only ACK=Success with CONFIRMATIONCODE=Confirmed
// counts as confirmed; a Failure ACK is returned as ErrRejected.
func (v *AddressVerifier) Verify(ctx context.Context, email, street, zip string) (Result, error) {
	form := url.Values{}
	form.Set("USER", v.cfg.User)
	form.Set("PWD", v.cfg.Password)
	form.Set("SIGNATURE", v.cfg.Signature)
	form.Set("METHOD", "AddressVerify")
	form.Set("VERSION", apiVersion)
	form.Set("EMAIL", email)
	form.Set("STREET", street)
	form.Set("ZIP", zip)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := v.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("paypal address verify: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	raw, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil {
		return Result{}, fmt.Errorf("paypal address verify: read body: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("paypal address verify: status %d", res.StatusCode)
	}
	vals, err := url.ParseQuery(string(raw))
	if err != nil {
		return Result{}, fmt.Errorf("paypal address verify: decode: %w", err)
	}

	ack := vals.Get("ACK")
	out := Result{
		Code:        vals.Get("CONFIRMATIONCODE"),
		StreetMatch: vals.Get("STREETMATCH"),
		ZipMatch:    vals.Get("ZIPMATCH"),
	}
	switch ack {
	case "Success", "SuccessWithWarning":
		out.Confirmed = ack == "Success" && out.Code == "Confirmed"
		return out, nil
	case "Failure", "FailureWithWarning":
		return out, fmt.Errorf("%w: %s %s", ErrRejected, vals.Get("L_ERRORCODE0"), vals.Get("L_SHORTMESSAGE0"))
	default:
		return out, fmt.Errorf("paypal address verify: unexpected ACK %q", ack)
	}
}
