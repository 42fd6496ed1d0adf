package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/ganot/logitrack/internal/domain/order"
	"github.com/ganot/logitrack/internal/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	body := bytes.NewBufferString(`{"jsonrpc":"2.0","method":"list_orders","params":{"channel":"Retail"},"id":1}`)
	req, err := ParseRequest(body)
	require.NoError(t, err)
	require.Equal(t, "2.0", req.JSONRPC)
	require.Equal(t, "list_orders", req.Method)
	require.Equal(t, json.RawMessage(`{"channel":"Retail"}`), req.Params)
}

func TestParseRequest_Invalid(t *testing.T) {
	_, err := ParseRequest(bytes.NewBufferString(`{"jsonrpc":"2.0","id":1}`))
	require.Error(t, err)
	assert.Equal(t, ErrInvalidReq, parseErrorCode(err))

	_, err = ParseRequest(bytes.NewBufferString(`{"jsonrpc":`))
	require.Error(t, err)
	assert.Equal(t, ErrParseCode, parseErrorCode(err))
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, 1, ErrInvalidParams, "bad params", nil)

	require.Equal(t, 200, rec.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrInvalidParams, resp.Error.Code)
	assert.Nil(t, resp.Result)
}

func TestRPCError(t *testing.T) {
	code, _ := rpcError(fmt.Errorf("%w: drop", mcp.ErrUnknownMethod))
	assert.Equal(t, ErrMethodNotFound, code)

	code, _ = rpcError(fmt.Errorf("%w: bad json", mcp.ErrInvalidParams))
	assert.Equal(t, ErrInvalidParams, code)

	code, data := rpcError(mcp.MapError(order.ErrOrderNotFound))
	assert.Equal(t, ErrApplication, code)
	apiErr, ok := data.(*mcp.APIError)
	require.True(t, ok)
	assert.Equal(t, "ORDER_NOT_FOUND", apiErr.Code)

	code, _ = rpcError(errors.New("boom"))
	assert.Equal(t, ErrInternal, code)
}
