package client

import (
	"fmt"
	"net/url"
)

type TourClient struct {
	httpClient *HttpClient
}

func NewTourClient(baseUrl string, token string) *TourClient {
	return &TourClient{
		httpClient: NewHttpClient(baseUrl).WithToken(token),
	}
}

// As returns a client for the same service that authenticates with token.
func (c *TourClient) As(token string) *TourClient {
	return &TourClient{httpClient: c.httpClient.WithToken(token)}
}

func (c *TourClient) Create(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/tours", body)
}

func (c *TourClient) List(limit int, offset int64) (*Response, error) {
	return c.httpClient.GET(fmt.Sprintf("/api/v1/tours?limit=%d&offset=%d", limit, offset))
}

func (c *TourClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET("/api/v1/tours/id/" + url.PathEscape(id))
}

func (c *TourClient) Update(id string, body any) (*Response, error) {
	return c.httpClient.PATCH("/api/v1/tours/id/"+url.PathEscape(id), body)
}

func (c *TourClient) Deactivate(id string) (*Response, error) {
	return c.httpClient.DELETE("/api/v1/tours/id/" + url.PathEscape(id))
}
