package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"field_visits/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	customersCollection     = "customers"
	partnerVisitsCollection = "partner_visits"
)

type customerDocument struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Name             string             `bson:"name"`
	ARN              string             `bson:"arn"`
	SIP              string             `bson:"sip"`
	Health           string             `bson:"health"`
	Motor            string             `bson:"motor"`
	MF               string             `bson:"mf"`
	Life             string             `bson:"life"`
	VisitingDateTime *time.Time         `bson:"visitingDateTime,omitempty"`
	CustomerImage    string             `bson:"customerImage"`
	Latitude         *float64           `bson:"latitude,omitempty"`
	Longitude        *float64           `bson:"longitude,omitempty"`
	SheetSynced      bool               `bson:"sheetSynced"`
	CreatedAt        time.Time          `bson:"createdAt"`
}

type partnerVisitDocument struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty"`
	EmployeeName         string             `bson:"employeeName"`
	CustomerName         string             `bson:"customerName"`
	CustomerContact      string             `bson:"customerContact"`
	CustomerEmail        string             `bson:"customerEmail"`
	CityVillage          string             `bson:"cityVillage"`
	Tehsil               string             `bson:"tehsil"`
	District             string             `bson:"district"`
	State                string             `bson:"state"`
	VisitingDateTime     *time.Time         `bson:"visitingDateTime,omitempty"`
	Insurance            string             `bson:"insurance"`
	MFSIF                string             `bson:"mfSif"`
	StatusOfConversation string             `bson:"statusOfConversation"`
	CustomerImage        string             `bson:"customerImage"`
	Latitude             *float64           `bson:"latitude,omitempty"`
	Longitude            *float64           `bson:"longitude,omitempty"`
	CreatedAt            time.Time          `bson:"createdAt"`
}

type VisitRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewVisitRepository(client *mongo.Client, dbName string) *VisitRepository {
	return &VisitRepository{client: client, db: client.Database(dbName)}
}

func (r *VisitRepository) InsertCustomer(ctx context.Context, customer *model.Customer) error {
	doc := toCustomerDocument(*customer)
	doc.CreatedAt = time.Now().UTC()
	res, err := r.db.Collection(customersCollection).InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		customer.DocumentID = id.Hex()
	}
	customer.CreatedAt = doc.CreatedAt
	return nil
}

func (r *VisitRepository) FindCustomers(ctx context.Context, filter model.VisitFilter) ([]model.Customer, error) {
	return findAll(ctx, r.db.Collection(customersCollection), buildFilter(filter, "name"), fromCustomerDocument)
}

func (r *VisitRepository) GetUnsyncedCustomers(ctx context.Context) ([]model.Customer, error) {
	return findAll(ctx, r.db.Collection(customersCollection), bson.M{"sheetSynced": bson.M{"$ne": true}}, fromCustomerDocument)
}

func (r *VisitRepository) MarkCustomerSynced(ctx context.Context, customer model.Customer) error {
	id, err := primitive.ObjectIDFromHex(customer.DocumentID)
	if err != nil {
		return fmt.Errorf("bad document id %q: %w", customer.DocumentID, err)
	}
	_, err = r.db.Collection(customersCollection).UpdateByID(ctx, id, bson.M{"$set": bson.M{"sheetSynced": true}})
	return err
}

func (r *VisitRepository) InsertPartnerVisit(ctx context.Context, visit *model.PartnerVisit) error {
	doc := toPartnerVisitDocument(*visit)
	doc.CreatedAt = time.Now().UTC()
	if _, err := r.db.Collection(partnerVisitsCollection).InsertOne(ctx, doc); err != nil {
		return err
	}
	visit.CreatedAt = doc.CreatedAt
	return nil
}

func (r *VisitRepository) FindPartnerVisits(ctx context.Context, filter model.VisitFilter) ([]model.PartnerVisit, error) {
	return findAll(ctx, r.db.Collection(partnerVisitsCollection), buildFilter(filter, "employeeName"), fromPartnerVisitDocument)
}

func (r *VisitRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *VisitRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// buildFilter строит запрос по диапазону visitingDateTime и подстроке имени.
// Имя экранируется: поиск идет по литералу, а не по регулярному выражению пользователя.
func buildFilter(filter model.VisitFilter, nameField string) bson.M {
	query := bson.M{}
	if filter.From != nil || filter.To != nil {
		rng := bson.M{}
		if filter.From != nil {
			rng["$gte"] = filter.From.UTC()
		}
		if filter.To != nil {
			rng["$lte"] = filter.To.UTC()
		}
		query["visitingDateTime"] = rng
	}
	if filter.Name != "" {
		query[nameField] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Name), Options: "i"}
	}
	return query
}

func findAll[D any, M any](ctx context.Context, coll *mongo.Collection, query bson.M, convert func(D) M) ([]M, error) {
	cur, err := coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []D
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]M, 0, len(docs))
	for _, d := range docs {
		out = append(out, convert(d))
	}
	return out, nil
}

func toCustomerDocument(c model.Customer) customerDocument {
	return customerDocument{
		Name:             c.Name,
		ARN:              c.ARN,
		SIP:              c.SIP,
		Health:           c.Health,
		Motor:            c.Motor,
		MF:               c.MF,
		Life:             c.Life,
		VisitingDateTime: c.VisitingDateTime,
		CustomerImage:    c.CustomerImage,
		Latitude:         c.Latitude,
		Longitude:        c.Longitude,
		SheetSynced:      c.SheetIsSynced,
	}
}

func fromCustomerDocument(d customerDocument) model.Customer {
	c := model.Customer{
		Name:             d.Name,
		ARN:              d.ARN,
		SIP:              d.SIP,
		Health:           d.Health,
		Motor:            d.Motor,
		MF:               d.MF,
		Life:             d.Life,
		VisitingDateTime: d.VisitingDateTime,
		CustomerImage:    d.CustomerImage,
		Latitude:         d.Latitude,
		Longitude:        d.Longitude,
		SheetIsSynced:    d.SheetSynced,
		DocumentID:       d.ID.Hex(),
	}
	c.CreatedAt = d.CreatedAt
	return c
}

func toPartnerVisitDocument(v model.PartnerVisit) partnerVisitDocument {
	return partnerVisitDocument{
		EmployeeName:         v.EmployeeName,
		CustomerName:         v.CustomerName,
		CustomerContact:      v.CustomerContact,
		CustomerEmail:        v.CustomerEmail,
		CityVillage:          v.CityVillage,
		Tehsil:               v.Tehsil,
		District:             v.District,
		State:                v.State,
		VisitingDateTime:     v.VisitingDateTime,
		Insurance:            v.Insurance,
		MFSIF:                v.MFSIF,
		StatusOfConversation: v.StatusOfConversation,
		CustomerImage:        v.CustomerImage,
		Latitude:             v.Latitude,
		Longitude:            v.Longitude,
	}
}

func fromPartnerVisitDocument(d partnerVisitDocument) model.PartnerVisit {
	v := model.PartnerVisit{
		EmployeeName:         d.EmployeeName,
		CustomerName:         d.CustomerName,
		CustomerContact:      d.CustomerContact,
		CustomerEmail:        d.CustomerEmail,
		CityVillage:          d.CityVillage,
		Tehsil:               d.Tehsil,
		District:             d.District,
		State:                d.State,
		VisitingDateTime:     d.VisitingDateTime,
		Insurance:            d.Insurance,
		MFSIF:                d.MFSIF,
		StatusOfConversation: d.StatusOfConversation,
		CustomerImage:        d.CustomerImage,
		Latitude:             d.Latitude,
		Longitude:            d.Longitude,
	}
	v.CreatedAt = d.CreatedAt
	return v
}
