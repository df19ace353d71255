// Package qdrant provides a CardIndex implementation using Qdrant.
package qdrant

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/ersonp/anki-inject/internal/domain/entities"
	"github.com/ersonp/anki-inject/internal/domain/ports"
	"github.com/ersonp/anki-inject/internal/infrastructure/config"
)

// Payload keys of an indexed card.
const (
	payloadDeck        = "deck"
	payloadFront       = "front"
	payloadBack        = "back"
	payloadFingerprint = "fingerprint"
	payloadExtra       = "extra"
)

// Repository implements the CardIndex and CollectionManager interfaces using Qdrant.
type Repository struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	conn       *grpc.ClientConn
}

// NewRepository creates a new Qdrant repository.
func NewRepository(cfg config.QdrantConfig) (*Repository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	opts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Repository{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: cfg.CollectionName(),
		conn:       conn,
	}, nil
}

// apiKeyInterceptor attaches the Qdrant Cloud api-key header to every call.
func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// EnsureCollection creates the collection if it doesn't exist.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	_, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return nil
}

// DeleteCollection removes the collection and all indexed cards.
func (r *Repository) DeleteCollection(ctx context.Context) error {
	_, err := r.client.Delete(ctx, &pb.DeleteCollection{
		CollectionName: r.collection,
	})
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}

	return nil
}

// SaveBatch stores multiple cards. Points with an existing ID are overwritten.
func (r *Repository) SaveBatch(ctx context.Context, cards []ports.IndexedCard) error {
	if len(cards) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, 0, len(cards))
	for i := range cards {
		points = append(points, cardToPoint(cards[i]))
	}

	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	return nil
}

// SearchSimilar returns indexed cards scoring at least minScore, best first.
func (r *Repository) SearchSimilar(ctx context.Context, embedding []float32, limit int, minScore float32) ([]entities.SimilarMatch, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		ScoreThreshold: pb.PtrOf(minScore),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	matches := make([]entities.SimilarMatch, 0, len(resp.Result))
	for _, point := range resp.Result {
		matches = append(matches, payloadToMatch(point.Payload, point.Score))
	}

	return matches, nil
}

// Count returns the number of indexed cards.
func (r *Repository) Count(ctx context.Context) (uint64, error) {
	resp, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err != nil {
		return 0, fmt.Errorf("getting collection info: %w", err)
	}

	if resp.Result.PointsCount == nil {
		return 0, nil
	}

	return *resp.Result.PointsCount, nil
}

// cardToPoint converts an indexed card to a Qdrant point.
func cardToPoint(card ports.IndexedCard) *pb.PointStruct {
	payload := map[string]*pb.Value{
		payloadDeck:        stringValue(card.Deck),
		payloadFront:       stringValue(card.Card.Front),
		payloadBack:        stringValue(card.Card.Back),
		payloadFingerprint: stringValue(card.Card.Fingerprint()),
	}
	if len(card.Card.Extra) > 0 {
		fields := make(map[string]*pb.Value, len(card.Card.Extra))
		for k, v := range card.Card.Extra {
			fields[k] = stringValue(v)
		}
		payload[payloadExtra] = &pb.Value{Kind: &pb.Value_StructValue{StructValue: &pb.Struct{Fields: fields}}}
	}

	return &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{
				Uuid: card.ID,
			},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{
					Data: card.Embedding,
				},
			},
		},
		Payload: payload,
	}
}

// payloadToMatch converts a scored point payload to a similar match.
func payloadToMatch(payload map[string]*pb.Value, score float32) entities.SimilarMatch {
	card := entities.Card{
		Front: getStringValue(payload, payloadFront),
		Back:  getStringValue(payload, payloadBack),
	}
	if extra := payload[payloadExtra].GetStructValue(); extra != nil && len(extra.Fields) > 0 {
		card.Extra = make(map[string]string, len(extra.Fields))
		for k, v := range extra.Fields {
			card.Extra[k] = v.GetStringValue()
		}
	}

	return entities.SimilarMatch{
		Card:  card,
		Deck:  getStringValue(payload, payloadDeck),
		Score: score,
	}
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

// Helper functions for payload extraction.
func getStringValue(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}
