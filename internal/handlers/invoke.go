package handlers

import (
	"encoding/json"
	"net/http"

	"mediastore-bridge/internal/bridge"

	"github.com/gorilla/mux"
)

// maxInvokeBody bounds a single invocation request.
const maxInvokeBody = 64 << 10

// channelFromRequest reports whether the {namespace} route variable
// addresses this bridge's channel.
func (h *Handlers) channelFromRequest(r *http.Request) (bridge.Channel, bool) {
	requested := bridge.Channel(mux.Vars(r)["namespace"] + "/" + bridge.ChannelSuffix)
	return requested, requested == h.channel
}

// Invoke handles POST /api/channels/{namespace}/media_store/invoke.
// The body is a bridge.MethodCall; the response is a bridge.Envelope.
func (h *Handlers) Invoke(w http.ResponseWriter, r *http.Request) {
	requested, ok := h.channelFromRequest(r)
	if !ok {
		writeJSONError(w, "unknown channel "+requested.String(), http.StatusNotFound)
		return
	}

	var call bridge.MethodCall
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInvokeBody))
	if err := dec.Decode(&call); err != nil {
		writeJSONError(w, "invalid invocation body: "+err.Error(), http.StatusBadRequest)
		return
	}

	outcome, err := h.dispatcher.Dispatch(r.Context(), call)
	if err != nil {
		h.log.Error("invoke %s failed: %v", call.Method, err)
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSONStatusCode(w, http.StatusOK, bridge.EnvelopeFor(outcome))
}
