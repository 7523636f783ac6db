// Package record persists plan transcripts and the Discord-thread mapping
// they were dispatched to. It is grounded on goadesign-goa-ai's use of
// go.mongodb.org/mongo-driver/v2 as the corpus's one Mongo-backed example,
// replacing the teacher's Postgres/pgx store with a document store that
// matches PlanRecord's naturally nested, schema-light shape (a growing list
// of generation dumps per plan, not a fixed relational row).
package record

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"travelagency.app/bot/internal/model"
)

const (
	plansCollection    = "travel_agency_plans"
	mappingsCollection = "travel_agency_plan_mappings"
)

// Store is the Record Store the orchestrator uses to persist plan state and
// each plan's thread mapping.
type Store struct {
	database *mongo.Database
}

// Connect dials MongoDB and verifies connectivity with a ping.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	return &Store{database: client.Database(database)}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.database.Client().Disconnect(ctx)
}

// CreatePlan inserts the initial PlanRecord at plan creation time, before
// any subtask has produced output.
func (s *Store) CreatePlan(ctx context.Context, plan model.PlanRecord) error {
	coll := s.database.Collection(plansCollection)
	// Store empty arrays rather than null so the $push appends below apply.
	if plan.Messages == nil {
		plan.Messages = []model.Message{}
	}
	if plan.Dumps == nil {
		plan.Dumps = []model.GenerationDump{}
	}
	if _, err := coll.InsertOne(ctx, plan); err != nil {
		return fmt.Errorf("inserting plan %s: %w", plan.ID, err)
	}
	return nil
}

// AppendDump appends one GenerationDump to a plan's running transcript.
// Using $push keeps concurrent subtask completions from clobbering each
// other's writes, which a read-modify-write on the whole document would not.
func (s *Store) AppendDump(ctx context.Context, planID string, dump model.GenerationDump) error {
	coll := s.database.Collection(plansCollection)
	_, err := coll.UpdateOne(ctx,
		bson.M{"_id": planID},
		bson.M{"$push": bson.M{"dumps": dump}},
	)
	if err != nil {
		return fmt.Errorf("appending dump to plan %s: %w", planID, err)
	}
	return nil
}

// AppendMessage appends one chat-history message (the plan analysis, or the
// synthesized final answer) to a plan's message log.
func (s *Store) AppendMessage(ctx context.Context, planID string, msg model.Message) error {
	coll := s.database.Collection(plansCollection)
	_, err := coll.UpdateOne(ctx,
		bson.M{"_id": planID},
		bson.M{"$push": bson.M{"messages": msg}},
	)
	if err != nil {
		return fmt.Errorf("appending message to plan %s: %w", planID, err)
	}
	return nil
}

// GetPlan loads a plan's full transcript.
func (s *Store) GetPlan(ctx context.Context, planID string) (model.PlanRecord, error) {
	coll := s.database.Collection(plansCollection)

	var plan model.PlanRecord
	if err := coll.FindOne(ctx, bson.M{"_id": planID}).Decode(&plan); err != nil {
		return model.PlanRecord{}, fmt.Errorf("loading plan %s: %w", planID, err)
	}
	return plan, nil
}

// SaveMapping records which Discord thread a plan was dispatched to, so a
// later edit to the original message (e.g. an error surfaced after the fact)
// can be routed back to the right channel/thread.
func (s *Store) SaveMapping(ctx context.Context, mapping model.PlanMapping) error {
	coll := s.database.Collection(mappingsCollection)
	opts := options.Replace().SetUpsert(true)
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": mapping.PlanID}, mapping, opts)
	if err != nil {
		return fmt.Errorf("saving mapping for plan %s: %w", mapping.PlanID, err)
	}
	return nil
}

// GetMapping loads the Discord thread a plan was dispatched to.
func (s *Store) GetMapping(ctx context.Context, planID string) (model.PlanMapping, error) {
	coll := s.database.Collection(mappingsCollection)

	var mapping model.PlanMapping
	if err := coll.FindOne(ctx, bson.M{"_id": planID}).Decode(&mapping); err != nil {
		return model.PlanMapping{}, fmt.Errorf("loading mapping for plan %s: %w", planID, err)
	}
	return mapping, nil
}
