// Package wire decodes backend wire payloads into telemetry values. Each
// decoder turns one payload into one typed sample and tolerates schema
// drift between engine families; decoding is best effort per message, so
// a malformed payload is reported upward and never carried into state.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"gitlab.com/tinyland/lab/proxy-pulse/telemetry"
)

// ConnectionsUpdate is the decoded form of one connections payload.
type ConnectionsUpdate struct {
	UploadTotal   int64
	DownloadTotal int64
	Connections   []telemetry.ConnectionRecord
}

// basicMetadata is the connection metadata shape of the standard engine.
type basicMetadata struct {
	Network         string `json:"network"`
	Type            string `json:"type"`
	SourceIP        string `json:"sourceIP"`
	DestinationIP   string `json:"destinationIP"`
	SourcePort      string `json:"sourcePort"`
	DestinationPort string `json:"destinationPort"`
	Host            string `json:"host"`
	DNSMode         string `json:"dnsMode"`
}

// basicRecord is the standard connection record shape.
type basicRecord struct {
	ID          string        `json:"id"`
	Metadata    basicMetadata `json:"metadata"`
	Upload      int64         `json:"upload"`
	Download    int64         `json:"download"`
	Start       time.Time     `json:"start"`
	Chains      []string      `json:"chains"`
	Rule        string        `json:"rule"`
	RulePayload string        `json:"rulePayload"`
}

// extendedMetadata is the extended ("premium") metadata shape. It is a
// superset of basicMetadata; the additional fields are optional on the
// wire and default to their zero values.
type extendedMetadata struct {
	basicMetadata
	ProcessPath       string `json:"processPath"`
	Process           string `json:"process"`
	SpecialProxy      string `json:"specialProxy"`
	RemoteDestination string `json:"remoteDestination"`
	UID               int64  `json:"uid"`
}

// extendedRecord is the extended connection record shape. Per-connection
// instantaneous speeds only appear in this variant.
type extendedRecord struct {
	ID            string           `json:"id"`
	Metadata      extendedMetadata `json:"metadata"`
	Upload        int64            `json:"upload"`
	Download      int64            `json:"download"`
	UploadSpeed   float64          `json:"uploadSpeed"`
	DownloadSpeed float64          `json:"downloadSpeed"`
	Start         time.Time        `json:"start"`
	Chains        []string         `json:"chains"`
	Rule          string           `json:"rule"`
	RulePayload   string           `json:"rulePayload"`
}

// DecodeConnections parses a connections payload from a push-transport
// engine. Each record is first probed against the basic shape with
// unknown fields disallowed; a structural mismatch (extra or mistyped
// fields) falls through to the extended shape. The decode fails only if
// a record parses as neither, in which case the caller keeps its prior
// state.
func DecodeConnections(data []byte) (ConnectionsUpdate, error) {
	var env struct {
		UploadTotal   int64             `json:"uploadTotal"`
		DownloadTotal int64             `json:"downloadTotal"`
		Connections   []json.RawMessage `json:"connections"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return ConnectionsUpdate{}, fmt.Errorf("wire: connections envelope: %w", err)
	}

	records := make([]telemetry.ConnectionRecord, 0, len(env.Connections))
	for i, raw := range env.Connections {
		rec, basicErr := decodeBasicRecord(raw)
		if basicErr == nil {
			records = append(records, rec)
			continue
		}
		rec, extErr := decodeExtendedRecord(raw)
		if extErr != nil {
			return ConnectionsUpdate{}, fmt.Errorf(
				"wire: connection %d matches neither schema: basic: %v, extended: %w", i, basicErr, extErr)
		}
		records = append(records, rec)
	}

	return ConnectionsUpdate{
		UploadTotal:   env.UploadTotal,
		DownloadTotal: env.DownloadTotal,
		Connections:   records,
	}, nil
}

// decodeBasicRecord probes the basic shape strictly. Any decode error is
// treated as a structural mismatch because the input is an in-memory
// buffer; there is no non-structural failure mode.
func decodeBasicRecord(raw json.RawMessage) (telemetry.ConnectionRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var r basicRecord
	if err := dec.Decode(&r); err != nil {
		return telemetry.ConnectionRecord{}, err
	}

	return telemetry.ConnectionRecord{
		ID:              r.ID,
		SourceIP:        r.Metadata.SourceIP,
		SourcePort:      r.Metadata.SourcePort,
		Host:            hostOrDestination(r.Metadata.Host, r.Metadata.DestinationIP),
		DestinationIP:   r.Metadata.DestinationIP,
		DestinationPort: r.Metadata.DestinationPort,
		Network:         r.Metadata.Network,
		Chains:          r.Chains,
		Rule:            r.Rule,
		Upload:          r.Upload,
		Download:        r.Download,
		Alive:           true,
		Start:           r.Start,
	}, nil
}

// decodeExtendedRecord parses the extended shape leniently and maps it
// into the same record type, defaulting absent optional fields to empty.
func decodeExtendedRecord(raw json.RawMessage) (telemetry.ConnectionRecord, error) {
	var r extendedRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return telemetry.ConnectionRecord{}, err
	}

	host := hostOrDestination(r.Metadata.Host, r.Metadata.DestinationIP)
	if host == "" {
		host = r.Metadata.RemoteDestination
	}

	return telemetry.ConnectionRecord{
		ID:              r.ID,
		SourceIP:        r.Metadata.SourceIP,
		SourcePort:      r.Metadata.SourcePort,
		Host:            host,
		DestinationIP:   r.Metadata.DestinationIP,
		DestinationPort: r.Metadata.DestinationPort,
		Network:         r.Metadata.Network,
		Chains:          r.Chains,
		Rule:            r.Rule,
		Upload:          r.Upload,
		Download:        r.Download,
		UpSpeed:         r.UploadSpeed,
		DownSpeed:       r.DownloadSpeed,
		Alive:           true,
		Start:           r.Start,
		ProcessPath:     r.Metadata.ProcessPath,
		ProxyTag:        r.Metadata.SpecialProxy,
	}, nil
}

func hostOrDestination(host, destIP string) string {
	if host != "" {
		return host
	}
	return destIP
}

// surgeRequest is one entry of the REST-only engine's request log. Only
// remoteHost is guaranteed to be present.
type surgeRequest struct {
	ID            int64   `json:"id"`
	RemoteHost    string  `json:"remoteHost"`
	Status        string  `json:"status"`
	Rule          string  `json:"rule"`
	PolicyName    string  `json:"policyName"`
	InBytes       int64   `json:"inBytes"`
	OutBytes      int64   `json:"outBytes"`
	StartDate     float64 `json:"startDate"`
	SourceAddress string  `json:"sourceAddress"`
}

// DecodeSurgeRequests parses the REST-only engine's request list into
// connection records. Entries without a remoteHost are dropped; entries
// without an id get a synthesized one so consumers can key rows stably.
func DecodeSurgeRequests(data []byte) ([]telemetry.ConnectionRecord, error) {
	var env struct {
		Requests []surgeRequest `json:"requests"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("wire: requests payload: %w", err)
	}

	records := make([]telemetry.ConnectionRecord, 0, len(env.Requests))
	for _, req := range env.Requests {
		if req.RemoteHost == "" {
			continue
		}

		id := uuid.NewString()
		if req.ID != 0 {
			id = strconv.FormatInt(req.ID, 10)
		}

		var start time.Time
		if req.StartDate > 0 {
			sec, frac := int64(req.StartDate), req.StartDate-float64(int64(req.StartDate))
			start = time.Unix(sec, int64(frac*float64(time.Second)))
		}

		srcIP, srcPort, err := net.SplitHostPort(req.SourceAddress)
		if err != nil {
			srcIP, srcPort = req.SourceAddress, ""
		}

		var chains []string
		if req.PolicyName != "" {
			chains = []string{req.PolicyName}
		}

		records = append(records, telemetry.ConnectionRecord{
			ID:         id,
			SourceIP:   srcIP,
			SourcePort: srcPort,
			Host:       req.RemoteHost,
			Network:    "tcp",
			Chains:     chains,
			Rule:       req.Rule,
			Upload:     req.OutBytes,
			Download:   req.InBytes,
			Alive:      req.Status == "" || strings.EqualFold(req.Status, "active"),
			Start:      start,
		})
	}

	return records, nil
}
