package llm

import (
	"errors"

	ollama "github.com/ollama/ollama/api"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"

	"github.com/sarvagyakrcs/team-hammock---kuro/backend/go/internal/rag_service/ragerr"
)

// upstreamError 将各个 SDK 的错误统一为 ragerr.UpstreamError，并尽量保留远端状态码。
func upstreamError(err error) error {
	if err == nil {
		return nil
	}
	return ragerr.Upstream(ragerr.ServiceLLM, statusOf(err), err)
}

func statusOf(err error) int {
	var (
		apiErr    *openai.APIError
		reqErr    *openai.RequestError
		olErr     ollama.StatusError
		googleErr *googleapi.Error
		httpCoder interface{ HTTPCode() int }
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		return reqErr.HTTPStatusCode
	case errors.As(err, &olErr):
		return olErr.StatusCode
	case errors.As(err, &googleErr):
		return googleErr.Code
	case errors.As(err, &httpCoder):
		if code := httpCoder.HTTPCode(); code > 0 {
			return code
		}
	}
	return 0
}
