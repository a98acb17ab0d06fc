package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"

	"github.com/invopop/jsonschema"

	"driftline/server/internal/proto"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "output path for the JSON schema")
	flag.Parse()

	if outPath == "" {
		log.Fatal("schema: missing -out path")
	}

	schema, err := buildSchema()
	if err != nil {
		log.Fatalf("schema: %v", err)
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("schema: marshal schema: %v", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		log.Fatalf("schema: create output dir: %v", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		log.Fatalf("schema: write schema: %v", err)
	}
}

func buildSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}

	messages := []struct {
		title string
		value any
	}{
		{"Client Message", proto.ClientMessage{}},
		{"Joined", proto.JoinedMessage{}},
		{"State", proto.StateMessage{}},
		{"Event Outcome", proto.EventOutcomeMessage{}},
		{"Event Reject", proto.EventRejectMessage{}},
		{"Heartbeat", proto.HeartbeatMessage{}},
	}

	variants := make([]*jsonschema.Schema, 0, len(messages))
	for _, msg := range messages {
		variant := reflector.ReflectFromType(reflect.TypeOf(msg.value))
		if variant == nil {
			return nil, fmt.Errorf("failed to reflect %s schema", msg.title)
		}
		variant.Version = ""
		variant.Title = msg.title
		variants = append(variants, variant)
	}

	root := &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "Driftline Wire Protocol",
		Description: "Messages exchanged between the driftline demo server and its clients.",
		OneOf:       variants,
	}
	return root, nil
}
