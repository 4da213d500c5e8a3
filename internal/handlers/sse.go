package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
)

func writeSSEData(writer *bufio.Writer, flusher http.Flusher, payload string) error {
	if _, err := fmt.Fprintf(writer, "data: %s\n\n", payload); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func writeSSEJSON(writer *bufio.Writer, flusher http.Flusher, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return writeSSEData(writer, flusher, string(data))
}
