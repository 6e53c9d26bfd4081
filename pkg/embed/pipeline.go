package embed

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/covadev/covatrace/pkg/ai"
	"github.com/covadev/covatrace/pkg/bpmn"
)

// Record is one embedded item, for both BPMN tasks and code items.
type Record struct {
	ID     string    `json:"id"`
	Kind   string    `json:"kind"` // "bpmn_task" | "code_item"
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}

// Meta describes one embedding run.
type Meta struct {
	Model     string `json:"model"`
	Dim       int    `json:"dim"`
	TaskCount int    `json:"task_count"`
	CodeCount int    `json:"code_count"`
}

// Result bundles the embedded task and code records with run metadata.
type Result struct {
	Meta           Meta     `json:"meta"`
	TaskEmbeddings []Record `json:"task_embeddings"`
	CodeEmbeddings []Record `json:"code_embeddings"`
}

// Pipeline embeds semantic texts through an AI client in batches.
type Pipeline struct {
	client    ai.TraceAIClient
	model     string
	batchSize int
}

// NewPipeline creates an embedding pipeline. model is recorded in the
// result metadata only; the client decides which model actually serves
// the request.
func NewPipeline(client ai.TraceAIClient, model string, batchSize int) *Pipeline {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Pipeline{client: client, model: model, batchSize: batchSize}
}

type payload struct {
	id   string
	text string
}

func collectTaskPayloads(tasks []bpmn.Task) []payload {
	out := make([]payload, 0, len(tasks))
	for _, t := range tasks {
		id := strings.TrimSpace(t.ID)
		if id == "" {
			continue
		}
		text := BuildTaskText(t)
		if text == "" {
			// at least name and type
			text = strings.TrimSpace(strings.TrimSpace(t.Name) + " " + strings.TrimSpace(t.Type))
		}
		if text == "" {
			continue
		}
		out = append(out, payload{id: id, text: text})
	}
	return out
}

func collectCodePayloads(items []CodeInput) []payload {
	out := make([]payload, 0, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ID)
		if id == "" {
			continue
		}
		text := BuildCodeText(it)
		if text == "" {
			continue
		}
		out = append(out, payload{id: id, text: text})
	}
	return out
}

// Run embeds all task and code payloads and returns records in input
// order. Vectors are L2-normalized so similarity reduces to a dot
// product downstream.
func (p *Pipeline) Run(ctx context.Context, tasks []bpmn.Task, code []CodeInput) (*Result, error) {
	taskPayloads := collectTaskPayloads(tasks)
	codePayloads := collectCodePayloads(code)

	taskRecords, err := p.embedPayloads(ctx, taskPayloads, "bpmn_task")
	if err != nil {
		return nil, fmt.Errorf("embed tasks: %w", err)
	}
	codeRecords, err := p.embedPayloads(ctx, codePayloads, "code_item")
	if err != nil {
		return nil, fmt.Errorf("embed code items: %w", err)
	}

	dim := 0
	if len(taskRecords) > 0 {
		dim = len(taskRecords[0].Vector)
	} else if len(codeRecords) > 0 {
		dim = len(codeRecords[0].Vector)
	}

	return &Result{
		Meta: Meta{
			Model:     p.model,
			Dim:       dim,
			TaskCount: len(taskRecords),
			CodeCount: len(codeRecords),
		},
		TaskEmbeddings: taskRecords,
		CodeEmbeddings: codeRecords,
	}, nil
}

// EmbedText embeds one free-form text and returns the normalized vector.
func (p *Pipeline) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vec, err := p.client.GenerateEmbedding(ctx, []byte(text))
	if err != nil {
		return nil, err
	}
	return Normalize(vec), nil
}

func (p *Pipeline) embedPayloads(ctx context.Context, payloads []payload, kind string) ([]Record, error) {
	records := make([]Record, 0, len(payloads))

	for start := 0; start < len(payloads); start += p.batchSize {
		end := start + p.batchSize
		if end > len(payloads) {
			end = len(payloads)
		}
		batch := payloads[start:end]

		inputs := make([][]byte, len(batch))
		for i, pl := range batch {
			inputs[i] = []byte(pl.text)
		}

		vectors, err := p.client.GenerateEmbeddings(ctx, inputs)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embedding batch size mismatch: got %d want %d", len(vectors), len(batch))
		}

		for i, pl := range batch {
			records = append(records, Record{
				ID:     pl.id,
				Kind:   kind,
				Text:   pl.text,
				Vector: Normalize(vectors[i]),
			})
		}
	}

	return records, nil
}

// Normalize L2-normalizes a vector in a fresh slice. The zero vector is
// returned unchanged.
func Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	out := make([]float32, len(vec))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
