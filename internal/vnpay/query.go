package vnpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

const CommandQuery = "querydr"

var (
	// ErrUnavailable marks a query that produced no answer. Callers must treat
	// it as retryable and never as a payment decision.
	ErrUnavailable   = errors.New("vnpay: gateway unavailable")
	ErrQueryRejected = errors.New("vnpay: query rejected by gateway")
)

type QueryStatus string

const (
	QueryStatusSuccess QueryStatus = "success"
	QueryStatusFailed  QueryStatus = "failed"
	QueryStatusPending QueryStatus = "pending"
)

// QueryClient asks the gateway for the state of a transaction (querydr).
type QueryClient struct {
	client   *Client
	endpoint string
	http     *http.Client
	timeout  time.Duration
	breaker  *gobreaker.CircuitBreaker[*queryResponse]
}

func NewQueryClient(client *Client, endpoint string, timeout time.Duration) *QueryClient {
	breaker := gobreaker.NewCircuitBreaker[*queryResponse](gobreaker.Settings{
		Name:        "vnpay-querydr",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &QueryClient{
		client:   client,
		endpoint: endpoint,
		http:     &http.Client{},
		timeout:  timeout,
		breaker:  breaker,
	}
}

type queryRequest struct {
	RequestID       string `json:"vnp_RequestId"`
	Version         string `json:"vnp_Version"`
	Command         string `json:"vnp_Command"`
	TmnCode         string `json:"vnp_TmnCode"`
	TxnRef          string `json:"vnp_TxnRef"`
	OrderInfo       string `json:"vnp_OrderInfo"`
	TransactionDate string `json:"vnp_TransactionDate"`
	CreateDate      string `json:"vnp_CreateDate"`
	IPAddr          string `json:"vnp_IpAddr"`
	SecureHash      string `json:"vnp_SecureHash"`
}

type queryResponse struct {
	ResponseID        string `json:"vnp_ResponseId"`
	Command           string `json:"vnp_Command"`
	ResponseCode      string `json:"vnp_ResponseCode"`
	Message           string `json:"vnp_Message"`
	TmnCode           string `json:"vnp_TmnCode"`
	TxnRef            string `json:"vnp_TxnRef"`
	Amount            string `json:"vnp_Amount"`
	BankCode          string `json:"vnp_BankCode"`
	PayDate           string `json:"vnp_PayDate"`
	TransactionNo     string `json:"vnp_TransactionNo"`
	TransactionType   string `json:"vnp_TransactionType"`
	TransactionStatus string `json:"vnp_TransactionStatus"`
	OrderInfo         string `json:"vnp_OrderInfo"`
	PromotionCode     string `json:"vnp_PromotionCode"`
	PromotionAmount   string `json:"vnp_PromotionAmount"`
	SecureHash        string `json:"vnp_SecureHash"`
}

// Query returns the gateway's view of the payment for orderID. transactionDate
// is when the payment request was created.
func (q *QueryClient) Query(ctx context.Context, orderID int64, transactionDate time.Time) (QueryStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	resp, err := q.breaker.Execute(func() (*queryResponse, error) {
		return q.do(ctx, orderID, transactionDate)
	})
	if err != nil {
		if errors.Is(err, ErrQueryRejected) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch resp.TransactionStatus {
	case "00":
		return QueryStatusSuccess, nil
	case "01", "05":
		return QueryStatusPending, nil
	}
	return QueryStatusFailed, nil
}

func (q *QueryClient) do(ctx context.Context, orderID int64, transactionDate time.Time) (*queryResponse, error) {
	cfg := q.client.cfg
	req := queryRequest{
		RequestID:       strings.ReplaceAll(uuid.NewString(), "-", ""),
		Version:         Version,
		Command:         CommandQuery,
		TmnCode:         cfg.TmnCode,
		TxnRef:          strconv.FormatInt(orderID, 10),
		OrderInfo:       fmt.Sprintf("Query order #%d", orderID),
		TransactionDate: transactionDate.In(ict).Format(timeLayout),
		CreateDate:      q.client.now().In(ict).Format(timeLayout),
		IPAddr:          "127.0.0.1",
	}
	req.SecureHash = q.client.sign(strings.Join([]string{
		req.RequestID, req.Version, req.Command, req.TmnCode, req.TxnRef,
		req.TransactionDate, req.CreateDate, req.IPAddr, req.OrderInfo,
	}, "|"))

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, q.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := q.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("query request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 500 {
		return nil, fmt.Errorf("query returned http %d", httpResp.StatusCode)
	}

	var resp queryResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}

	if resp.ResponseCode != ResponseSuccess {
		return nil, fmt.Errorf("%w: code %s %s", ErrQueryRejected, resp.ResponseCode, resp.Message)
	}

	want := q.client.sign(strings.Join([]string{
		resp.ResponseID, resp.Command, resp.ResponseCode, resp.Message, resp.TmnCode, resp.TxnRef,
		resp.Amount, resp.BankCode, resp.PayDate, resp.TransactionNo, resp.TransactionType,
		resp.TransactionStatus, resp.OrderInfo, resp.PromotionCode, resp.PromotionAmount,
	}, "|"))
	if !strings.EqualFold(want, resp.SecureHash) {
		return nil, fmt.Errorf("%w: %w", ErrQueryRejected, ErrInvalidSignature)
	}
	return &resp, nil
}
