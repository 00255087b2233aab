package semantic

import (
	"context"
	"errors"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

// --- mocks ---

type mockPoints struct {
	upsertReq  *pb.UpsertPoints
	upsertErr  error
	deleteReq  *pb.DeletePoints
	deleteErr  error
	searchResp *pb.SearchResponse
	searchErr  error
	countResp  *pb.CountResponse
	countErr   error
}

func (m *mockPoints) Upsert(_ context.Context, in *pb.UpsertPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	m.upsertReq = in
	return &pb.PointsOperationResponse{}, m.upsertErr
}

func (m *mockPoints) Delete(_ context.Context, in *pb.DeletePoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	m.deleteReq = in
	return &pb.PointsOperationResponse{}, m.deleteErr
}

func (m *mockPoints) Search(_ context.Context, _ *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	return m.searchResp, m.searchErr
}

func (m *mockPoints) Count(_ context.Context, _ *pb.CountPoints, _ ...grpc.CallOption) (*pb.CountResponse, error) {
	return m.countResp, m.countErr
}

type mockCollections struct {
	listResp  *pb.ListCollectionsResponse
	listErr   error
	createReq *pb.CreateCollection
	createErr error
}

func (m *mockCollections) List(_ context.Context, _ *pb.ListCollectionsRequest, _ ...grpc.CallOption) (*pb.ListCollectionsResponse, error) {
	return m.listResp, m.listErr
}

func (m *mockCollections) Create(_ context.Context, in *pb.CreateCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	m.createReq = in
	return &pb.CollectionOperationResponse{}, m.createErr
}

func scored(score float32, payload map[string]string) *pb.ScoredPoint {
	p := make(map[string]*pb.Value, len(payload))
	for k, v := range payload {
		p[k] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
	}
	return &pb.ScoredPoint{Score: score, Payload: p}
}

// --- tests ---

func TestEnsureCollectionCreates(t *testing.T) {
	cols := &mockCollections{listResp: &pb.ListCollectionsResponse{}}
	vs := NewWithClients(&mockPoints{}, cols, "books")

	if err := vs.EnsureCollection(context.Background(), 1536); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	if cols.createReq == nil {
		t.Fatal("expected Create call")
	}
	if got := cols.createReq.GetVectorsConfig().GetParams().GetSize(); got != 1536 {
		t.Errorf("dims = %d, want 1536", got)
	}
	if cols.createReq.GetVectorsConfig().GetParams().GetDistance() != pb.Distance_Cosine {
		t.Error("expected cosine distance")
	}
}

func TestEnsureCollectionExisting(t *testing.T) {
	cols := &mockCollections{listResp: &pb.ListCollectionsResponse{
		Collections: []*pb.CollectionDescription{{Name: "books"}},
	}}
	vs := NewWithClients(&mockPoints{}, cols, "books")

	if err := vs.EnsureCollection(context.Background(), 1536); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	if cols.createReq != nil {
		t.Error("Create should not be called when the collection exists")
	}
}

func TestCount(t *testing.T) {
	pts := &mockPoints{countResp: &pb.CountResponse{Result: &pb.CountResult{Count: 7}}}
	vs := NewWithClients(pts, &mockCollections{}, "books")

	n, err := vs.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 7 {
		t.Errorf("Count = %d, want 7", n)
	}
}

func TestCountError(t *testing.T) {
	pts := &mockPoints{countErr: errors.New("down")}
	vs := NewWithClients(pts, &mockCollections{}, "books")
	if _, err := vs.Count(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestUpsertBuildsPoints(t *testing.T) {
	pts := &mockPoints{}
	vs := NewWithClients(pts, &mockCollections{}, "books")

	err := vs.Upsert(context.Background(), []Record{
		{ID: "11111111-1111-1111-1111-111111111111", Embedding: []float32{0.1}, Payload: map[string]string{"title": "Dune"}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if len(pts.upsertReq.GetPoints()) != 1 {
		t.Fatalf("expected 1 point, got %d", len(pts.upsertReq.GetPoints()))
	}
	got := pts.upsertReq.GetPoints()[0].GetPayload()["title"].GetStringValue()
	if got != "Dune" {
		t.Errorf("payload title = %q", got)
	}
}

func TestUpsertEmptyNoop(t *testing.T) {
	pts := &mockPoints{}
	vs := NewWithClients(pts, &mockCollections{}, "books")
	if err := vs.Upsert(context.Background(), nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if pts.upsertReq != nil {
		t.Error("no request expected for empty batch")
	}
}

func TestClearDeletesAll(t *testing.T) {
	pts := &mockPoints{}
	vs := NewWithClients(pts, &mockCollections{}, "books")
	if err := vs.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if pts.deleteReq.GetPoints().GetFilter() == nil {
		t.Error("expected empty-filter delete selector")
	}
}

func TestSearchMapsAndSorts(t *testing.T) {
	pts := &mockPoints{searchResp: &pb.SearchResponse{Result: []*pb.ScoredPoint{
		scored(0.9, map[string]string{"slug": "the-hobbit", "title": "The Hobbit", "authors": "J.R.R. Tolkien", "tags": "fantasy, adventure", "summary": "Bilbo.", "document": "Title: The Hobbit"}),
		scored(0.4, map[string]string{"slug": "dune", "title": "Dune"}),
	}}}
	vs := NewWithClients(pts, &mockCollections{}, "books")

	matches, err := vs.Search(context.Background(), []float32{0.1}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID != "the-hobbit" {
		t.Errorf("best match = %q, want the-hobbit", matches[0].ID)
	}
	if matches[0].Distance >= matches[1].Distance {
		t.Errorf("matches not ascending by distance: %v %v", matches[0].Distance, matches[1].Distance)
	}
	if len(matches[0].Tags) != 2 || matches[0].Tags[1] != "adventure" {
		t.Errorf("tags not split: %v", matches[0].Tags)
	}
	if len(matches[0].Authors) != 1 {
		t.Errorf("authors not split: %v", matches[0].Authors)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	pts := &mockPoints{searchResp: &pb.SearchResponse{}}
	vs := NewWithClients(pts, &mockCollections{}, "books")

	matches, err := vs.Search(context.Background(), []float32{0.1}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected empty result, got %d", len(matches))
	}
}

func TestSearchClampsK(t *testing.T) {
	pts := &mockPoints{searchResp: &pb.SearchResponse{}}
	vs := NewWithClients(pts, &mockCollections{}, "books")
	if _, err := vs.Search(context.Background(), []float32{0.1}, 0); err != nil {
		t.Fatalf("Search with k=0: %v", err)
	}
}
