package client

import (
	"fmt"
	"net/url"
	"time"
)

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseUrl string, token string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseUrl).WithToken(token),
	}
}

// As returns a client for the same service that authenticates with token.
func (c *BookingClient) As(token string) *BookingClient {
	return &BookingClient{httpClient: c.httpClient.WithToken(token)}
}

func (c *BookingClient) Create(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings", body)
}

func (c *BookingClient) List(status string, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))
	return c.httpClient.GET("/api/v1/bookings?" + q.Encode())
}

func (c *BookingClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET("/api/v1/bookings/id/" + url.PathEscape(id))
}

func (c *BookingClient) Update(id string, body any) (*Response, error) {
	return c.httpClient.PATCH("/api/v1/bookings/id/"+url.PathEscape(id), body)
}

func (c *BookingClient) Cancel(id string, reason string) (*Response, error) {
	return c.httpClient.PATCH("/api/v1/bookings/id/"+url.PathEscape(id)+"/cancel", map[string]string{"reason": reason})
}

func (c *BookingClient) Confirm(id string) (*Response, error) {
	return c.httpClient.PATCH("/api/v1/bookings/id/"+url.PathEscape(id)+"/confirm", map[string]string{})
}

func (c *BookingClient) Complete(id string) (*Response, error) {
	return c.httpClient.PATCH("/api/v1/bookings/id/"+url.PathEscape(id)+"/complete", map[string]string{})
}

func (c *BookingClient) RecordPayment(id string, body any) (*Response, error) {
	return c.httpClient.PATCH("/api/v1/bookings/id/"+url.PathEscape(id)+"/payment", body)
}

func (c *BookingClient) Stats() (*Response, error) {
	return c.httpClient.GET("/api/v1/bookings/stats/overview")
}

func (c *BookingClient) WaitForHealthy() error {
	return c.httpClient.WaitForHealthy(30 * time.Second)
}
