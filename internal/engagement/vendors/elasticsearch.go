package vendors

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticsearchSource reads up to Size vendor documents from an index. Each
// document's _source uses the dataset column names as keys.
type ElasticsearchSource struct {
	Client *elasticsearch.Client
	Index  string
	Size   int
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source Row `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s ElasticsearchSource) Load(ctx context.Context) (*Dataset, error) {
	size := s.Size
	if size <= 0 {
		size = 1000
	}

	res, err := s.Client.Search(
		s.Client.Search.WithContext(ctx),
		s.Client.Search.WithIndex(s.Index),
		s.Client.Search.WithSize(size),
		s.Client.Search.WithSort("_doc"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: search %s: %v", ErrDatasetUnavailable, s.Index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search %s: %s", ErrDatasetUnavailable, s.Index, res.Status())
	}

	var body searchResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrDatasetUnavailable, s.Index, err)
	}

	rows := make([]Row, 0, len(body.Hits.Hits))
	for _, hit := range body.Hits.Hits {
		rows = append(rows, hit.Source)
	}
	return NewDataset("elasticsearch:"+s.Index, rows), nil
}
