package client

import (
	"fmt"
	"net/url"
)

type ReviewClient struct {
	httpClient *HttpClient
}

func NewReviewClient(baseUrl string, token string) *ReviewClient {
	return &ReviewClient{
		httpClient: NewHttpClient(baseUrl).WithToken(token),
	}
}

func (c *ReviewClient) As(token string) *ReviewClient {
	return &ReviewClient{httpClient: c.httpClient.WithToken(token)}
}

func (c *ReviewClient) Create(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/reviews", body)
}

func (c *ReviewClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET("/api/v1/reviews/id/" + url.PathEscape(id))
}

func (c *ReviewClient) Update(id string, body any) (*Response, error) {
	return c.httpClient.PATCH("/api/v1/reviews/id/"+url.PathEscape(id), body)
}

func (c *ReviewClient) Delete(id string) (*Response, error) {
	return c.httpClient.DELETE("/api/v1/reviews/id/" + url.PathEscape(id))
}

func (c *ReviewClient) Report(id string) (*Response, error) {
	return c.httpClient.POST("/api/v1/reviews/id/"+url.PathEscape(id)+"/report", map[string]string{})
}

func (c *ReviewClient) Moderate(id string, status string) (*Response, error) {
	return c.httpClient.PATCH("/api/v1/reviews/id/"+url.PathEscape(id)+"/moderate", map[string]string{"status": status})
}

func (c *ReviewClient) Respond(id string, message string) (*Response, error) {
	return c.httpClient.POST("/api/v1/reviews/id/"+url.PathEscape(id)+"/responses", map[string]string{"message": message})
}

func (c *ReviewClient) MarkHelpful(id string) (*Response, error) {
	return c.httpClient.POST("/api/v1/reviews/id/"+url.PathEscape(id)+"/helpful", map[string]string{})
}

func (c *ReviewClient) ListByTour(tourID string, limit int, offset int64) (*Response, error) {
	path := fmt.Sprintf("/api/v1/reviews/tour/%s?limit=%d&offset=%d", url.PathEscape(tourID), limit, offset)
	return c.httpClient.GET(path)
}

func (c *ReviewClient) Eligibility(tourID, bookingID string) (*Response, error) {
	q := url.Values{}
	q.Set("tour_id", tourID)
	q.Set("booking_id", bookingID)
	return c.httpClient.GET("/api/v1/reviews/eligibility?" + q.Encode())
}

func (c *ReviewClient) Stats() (*Response, error) {
	return c.httpClient.GET("/api/v1/reviews/stats/overview")
}
