package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"juristrack/internal/process/models"
	"juristrack/pkg/procerrors"
)

// searchSize bounds hits per lookup. Number searches return at most a
// handful of documents, one per instance the process runs in.
const searchSize = 10

// Client calls the public DataJud search API. One client serves all courts;
// the per-request court code selects the endpoint.
type Client struct {
	httpClient *http.Client
	apiKey     string
	endpoints  map[string]string
}

// NewClient builds a search client. The timeout bounds each individual
// lookup, connection setup included.
func NewClient(apiKey string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     apiKey,
		endpoints:  endpoints,
	}
}

type searchRequest struct {
	Size  int         `json:"size"`
	Query searchQuery `json:"query"`
}

type searchQuery struct {
	Match map[string]string `json:"match"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search looks a canonical process number up in one court. An empty slice
// means the court answered and has no such process; any transport or status
// failure comes back as a lookup error carrying the court code.
func (c *Client) Search(ctx context.Context, court, number string) ([]models.Document, error) {
	endpoint, ok := c.endpoints[court]
	if !ok {
		return nil, procerrors.Newf(procerrors.CodeConfiguration, "no endpoint for court %q", court).WithCourt(court)
	}

	body, err := json.Marshal(searchRequest{
		Size:  searchSize,
		Query: searchQuery{Match: map[string]string{"numeroProcesso": number}},
	})
	if err != nil {
		return nil, procerrors.Wrap(err, procerrors.CodeInternal, "encode search request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, procerrors.Wrap(err, procerrors.CodeLookup, "build search request").WithCourt(court)
	}
	req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, procerrors.Wrap(err, procerrors.CodeLookup, "search request failed").WithCourt(court)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, procerrors.Newf(procerrors.CodeLookup, "search returned status %d", resp.StatusCode).WithCourt(court)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, procerrors.Wrap(err, procerrors.CodeLookup, "decode search response").WithCourt(court)
	}

	docs := make([]models.Document, 0, len(decoded.Hits.Hits))
	for _, h := range decoded.Hits.Hits {
		docs = append(docs, h.Source)
	}
	return docs, nil
}
