package embedding

import (
	"errors"
	"fmt"

	ollama "github.com/ollama/ollama/api"
	openai "github.com/sashabaranov/go-openai"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/ragerr"
)

// httpStatusError 表示远端返回了非 2xx 状态码。
type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// upstreamError 将各个 SDK 的错误统一为 ragerr.UpstreamError，并尽量保留远端状态码。
func upstreamError(err error) error {
	if err == nil {
		return nil
	}
	status := 0
	var (
		apiErr  *openai.APIError
		reqErr  *openai.RequestError
		olErr   ollama.StatusError
		httpErr *httpStatusError
	)
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	case errors.As(err, &olErr):
		status = olErr.StatusCode
	case errors.As(err, &httpErr):
		status = httpErr.StatusCode
	}
	return ragerr.Upstream(ragerr.ServiceEmbedding, status, err)
}
