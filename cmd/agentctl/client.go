package main

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/gab-cat/cold-start-sub000/internal/agentclient"
)

func newAPIClient() *agentclient.Client {
	opts := []agentclient.Option{agentclient.WithLogger(log.Logger)}
	if timeout > 0 {
		opts = append(opts, agentclient.WithHTTPTimeout(timeout))
	}
	return agentclient.New(serviceURL, opts...)
}

// printJSON re-indents data onto out.
func printJSON(out io.Writer, data []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		_, werr := out.Write(data)
		return werr
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(out)
	return err
}
