package api

import (
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Vercel AI data-stream protocol marker, sent on every successful response.
const (
	DataStreamHeader  = "x-vercel-ai-data-stream"
	DataStreamVersion = "v1"
)

// usage mirrors the token accounting of the stream protocol's finish frame.
// Prompt tokens are not tracked; completion tokens are the character count
// of the reply.
type usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

type finishFrame struct {
	FinishReason string `json:"finishReason"`
	Usage        usage  `json:"usage"`
	IsContinued  bool   `json:"isContinued"`
}

// WriteDataStream writes the whole reply as one content frame followed by
// one finish frame. The reply is complete before the first byte is written;
// no incremental token streaming happens here.
func WriteDataStream(w io.Writer, text string) error {
	content, err := json.Marshal(text)
	if err != nil {
		return errors.Wrap(err, "marshal content frame")
	}
	if _, err := fmt.Fprintf(w, "0:%s\n", content); err != nil {
		return errors.Wrap(err, "write content frame")
	}

	finish, err := json.Marshal(finishFrame{
		FinishReason: "stop",
		Usage: usage{
			PromptTokens:     0,
			CompletionTokens: utf8.RuneCountInString(text),
		},
		IsContinued: false,
	})
	if err != nil {
		return errors.Wrap(err, "marshal finish frame")
	}
	if _, err := fmt.Fprintf(w, "e:%s\n", finish); err != nil {
		return errors.Wrap(err, "write finish frame")
	}
	return nil
}
