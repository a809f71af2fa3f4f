// Package vnpay signs outbound payment redirects and reads inbound callbacks
// for the VNPay gateway (protocol version 2.1.0).
package vnpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Version       = "2.1.0"
	CommandPay    = "pay"
	CurrencyVND   = "VND"
	OrderType     = "billpayment"
	DefaultLocale = "vn"

	// ResponseSuccess is the vnp_ResponseCode of a settled payment.
	ResponseSuccess = "00"

	timeLayout = "20060102150405"
)

var (
	ErrInvalidSignature = errors.New("vnpay: invalid secure hash")
	ErrMissingField     = errors.New("vnpay: missing callback field")
	ErrMalformedField   = errors.New("vnpay: malformed callback field")
)

// Gateway timestamps are in Indochina Time.
var ict = time.FixedZone("ICT", 7*60*60)

var minorUnits = decimal.NewFromInt(100)

type Config struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
}

type Client struct {
	cfg Config
	now func() time.Time
}

func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg, now: time.Now}
}

type PaymentRequest struct {
	TxnRef    int64
	Amount    decimal.Decimal // major units
	OrderInfo string
	IPAddr    string
	Locale    string
	BankCode  string
}

// PaymentURL assembles the signed redirect URL for req.
func (c *Client) PaymentURL(req PaymentRequest) string {
	locale := req.Locale
	if locale == "" {
		locale = DefaultLocale
	}

	params := url.Values{}
	params.Set("vnp_Version", Version)
	params.Set("vnp_TmnCode", c.cfg.TmnCode)
	params.Set("vnp_Amount", ToMinor(req.Amount))
	params.Set("vnp_Command", CommandPay)
	params.Set("vnp_CreateDate", c.now().In(ict).Format(timeLayout))
	params.Set("vnp_CurrCode", CurrencyVND)
	params.Set("vnp_IpAddr", req.IPAddr)
	params.Set("vnp_Locale", locale)
	params.Set("vnp_OrderInfo", req.OrderInfo)
	params.Set("vnp_OrderType", OrderType)
	params.Set("vnp_ReturnUrl", c.cfg.ReturnURL)
	params.Set("vnp_TxnRef", strconv.FormatInt(req.TxnRef, 10))
	if req.BankCode != "" {
		params.Set("vnp_BankCode", req.BankCode)
	}

	query := params.Encode()
	return c.cfg.PayURL + "?" + query + "&vnp_SecureHash=" + c.sign(query)
}

// Sign returns the lowercase hex HMAC-SHA512 over the sorted, URL-encoded
// params. vnp_SecureHash and vnp_SecureHashType are never part of the input.
func (c *Client) Sign(params url.Values) string {
	return c.sign(signable(params).Encode())
}

// Verify checks the vnp_SecureHash carried by params.
func (c *Client) Verify(params url.Values) error {
	got := params.Get("vnp_SecureHash")
	if got == "" {
		return ErrInvalidSignature
	}
	want := c.Sign(params)
	if !hmac.Equal([]byte(strings.ToLower(got)), []byte(want)) {
		return ErrInvalidSignature
	}
	return nil
}

// ReturnHash derives the hash placed on the return redirect: uppercase
// SHA-256 over the sorted params without vnp_SecureHash, followed by the
// shared secret.
func (c *Client) ReturnHash(params url.Values) string {
	filtered := url.Values{}
	for k, v := range params {
		if k != "vnp_SecureHash" {
			filtered[k] = v
		}
	}
	sum := sha256.Sum256([]byte(filtered.Encode() + "&vnp_SecureHashSecret=" + c.cfg.HashSecret))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// ReturnURL rebuilds the redirect handed back to the shopper after a settled
// payment, signed with ReturnHash.
func (c *Client) ReturnURL(cb *Callback) string {
	out := url.Values{}
	for _, k := range []string{
		"vnp_Amount", "vnp_BankCode", "vnp_BankTranNo", "vnp_CardType", "vnp_OrderInfo",
		"vnp_PayDate", "vnp_ResponseCode", "vnp_TmnCode", "vnp_TransactionNo",
		"vnp_TransactionStatus", "vnp_TxnRef",
	} {
		out.Set(k, cb.Raw.Get(k))
	}
	out.Set("vnp_SecureHash", c.ReturnHash(cb.Raw))
	return c.cfg.ReturnURL + "?" + out.Encode()
}

func (c *Client) sign(data string) string {
	mac := hmac.New(sha512.New, []byte(c.cfg.HashSecret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func signable(params url.Values) url.Values {
	out := url.Values{}
	for k, v := range params {
		if !strings.HasPrefix(k, "vnp_") || k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		out[k] = v
	}
	return out
}

// Callback is the parsed gateway notification.
type Callback struct {
	TransactionNo     string
	OrderID           int64
	ResponseCode      string
	TransactionStatus string
	PayDate           time.Time
	Amount            decimal.Decimal // major units
	BankCode          string
	CardType          string
	Raw               url.Values
}

func (cb *Callback) Succeeded() bool {
	return cb.ResponseCode == ResponseSuccess
}

// ParseCallback extracts the fields the order workflow needs. Only vnp_TxnRef
// and vnp_ResponseCode are mandatory; a settled payment also needs vnp_Amount.
func ParseCallback(params url.Values) (*Callback, error) {
	cb := &Callback{
		TransactionNo:     params.Get("vnp_TransactionNo"),
		ResponseCode:      params.Get("vnp_ResponseCode"),
		TransactionStatus: params.Get("vnp_TransactionStatus"),
		BankCode:          params.Get("vnp_BankCode"),
		CardType:          params.Get("vnp_CardType"),
		Raw:               params,
	}

	ref := params.Get("vnp_TxnRef")
	if ref == "" {
		return nil, fmt.Errorf("%w: vnp_TxnRef", ErrMissingField)
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: vnp_TxnRef=%q", ErrMalformedField, ref)
	}
	cb.OrderID = id

	if cb.ResponseCode == "" {
		return nil, fmt.Errorf("%w: vnp_ResponseCode", ErrMissingField)
	}

	if raw := params.Get("vnp_Amount"); raw != "" {
		minor, err := decimal.NewFromString(raw)
		if err != nil || minor.IsNegative() {
			return nil, fmt.Errorf("%w: vnp_Amount=%q", ErrMalformedField, raw)
		}
		cb.Amount = minor.Div(minorUnits).Round(2)
	} else if cb.Succeeded() {
		return nil, fmt.Errorf("%w: vnp_Amount", ErrMissingField)
	}

	if raw := params.Get("vnp_PayDate"); raw != "" {
		if t, err := time.ParseInLocation(timeLayout, raw, ict); err == nil {
			cb.PayDate = t
		}
	}
	return cb, nil
}

// ToMinor converts a major-unit amount to the integer string sent on the wire.
func ToMinor(amount decimal.Decimal) string {
	return amount.Mul(minorUnits).Round(0).String()
}
