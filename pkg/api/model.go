package api

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/akeil/syfix"
)

// envelope wraps every response from the SiYuan API.
// A Code other than zero signals an error, described by Msg.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (e envelope) empty() bool {
	d := bytes.TrimSpace(e.Data)
	return len(d) == 0 || bytes.Equal(d, []byte("null"))
}

type notebookList struct {
	Notebooks []syfix.Notebook `json:"notebooks"`
}

type idPayload struct {
	ID string `json:"id"`
}

type kramdownResult struct {
	ID       string `json:"id"`
	Kramdown string `json:"kramdown"`
}

type updatePayload struct {
	Data     string `json:"data"`
	DataType string `json:"dataType"`
	ID       string `json:"id"`
}

type insertPayload struct {
	Data       string `json:"data"`
	DataType   string `json:"dataType"`
	NextID     string `json:"nextID"`
	PreviousID string `json:"previousID"`
	ParentID   string `json:"parentID"`
}

type operation struct {
	Action string `json:"action,omitempty"`
	ID     string `json:"id"`
}

// insertedID reads the ID of a new block from the result of an insert.
//
// The result is either a single object with one operation
// or a list of transactions with a list of operations each.
func insertedID(raw json.RawMessage) (string, error) {
	var single struct {
		DoOperations operation `json:"doOperations"`
	}
	err := json.Unmarshal(raw, &single)
	if err == nil && single.DoOperations.ID != "" {
		return single.DoOperations.ID, nil
	}

	var transactions []struct {
		DoOperations []operation `json:"doOperations"`
	}
	err = json.Unmarshal(raw, &transactions)
	if err != nil {
		return "", err
	}
	for _, tx := range transactions {
		for _, op := range tx.DoOperations {
			if op.ID != "" {
				return op.ID, nil
			}
		}
	}

	return "", errors.New("insert result contains no block ID")
}
