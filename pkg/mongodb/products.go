package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leaflet/leaflet"
	"leaflet/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionName = "extractions"
	latestID       = "latest"
)

type extractionDoc struct {
	ID       string    `bson:"_id"`
	Products []bson.D  `bson:"products"`
	SavedAt  time.Time `bson:"saved_at"`
}

// ProductClient keeps the latest extraction as a single document.
type ProductClient struct {
	client *mongo.Client
	col    *mongo.Collection
}

func NewClient(ctx context.Context, uri, database string) (*ProductClient, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("productcol: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("productcol: ping: %w", err)
	}

	return &ProductClient{
		client: client,
		col:    client.Database(database).Collection(collectionName),
	}, nil
}

func (c *ProductClient) Load(ctx context.Context) ([]leaflet.Product, error) {
	var doc extractionDoc
	err := c.col.FindOne(ctx, bson.M{"_id": latestID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNoProducts
	}
	if err != nil {
		return nil, fmt.Errorf("productcol: %w", err)
	}

	products := make([]leaflet.Product, len(doc.Products))
	for i, d := range doc.Products {
		data, err := bson.MarshalExtJSON(d, false, false)
		if err != nil {
			return nil, fmt.Errorf("productcol: product %d: %w", i, err)
		}
		if err := json.Unmarshal(data, &products[i]); err != nil {
			return nil, fmt.Errorf("productcol: product %d: %w", i, err)
		}
	}
	return products, nil
}

func (c *ProductClient) Save(ctx context.Context, products []leaflet.Product) error {
	doc := extractionDoc{
		ID:       latestID,
		Products: make([]bson.D, len(products)),
		SavedAt:  time.Now(),
	}
	for i, p := range products {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("productcol: product %d: %w", i, err)
		}
		if err := bson.UnmarshalExtJSON(data, false, &doc.Products[i]); err != nil {
			return fmt.Errorf("productcol: product %d: %w", i, err)
		}
	}

	_, err := c.col.ReplaceOne(ctx, bson.M{"_id": latestID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("productcol: %w", err)
	}
	return nil
}

func (c *ProductClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

var _ storage.Store = (*ProductClient)(nil)
