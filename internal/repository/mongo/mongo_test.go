package mongo

import (
	"testing"
	"time"

	"field_visits/internal/model"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildFilter_Empty(t *testing.T) {
	assert.Equal(t, bson.M{}, buildFilter(model.VisitFilter{}, "name"))
}

func TestBuildFilter_DateBoundsIndependent(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	assert.Equal(t,
		bson.M{"visitingDateTime": bson.M{"$gte": from}},
		buildFilter(model.VisitFilter{From: &from}, "name"))

	assert.Equal(t,
		bson.M{"visitingDateTime": bson.M{"$lte": to}},
		buildFilter(model.VisitFilter{To: &to}, "name"))

	assert.Equal(t,
		bson.M{"visitingDateTime": bson.M{"$gte": from, "$lte": to}},
		buildFilter(model.VisitFilter{From: &from, To: &to}, "name"))
}

func TestBuildFilter_NameIsLiteralCaseInsensitive(t *testing.T) {
	got := buildFilter(model.VisitFilter{Name: "a.b(c"}, "employeeName")
	assert.Equal(t, bson.M{"employeeName": primitive.Regex{Pattern: `a\.b\(c`, Options: "i"}}, got)
}

func TestCustomerDocumentRoundTrip(t *testing.T) {
	lat, lng := 26.9, 75.8
	at := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	in := model.Customer{
		Name: "Asha", ARN: "ARN-1", SIP: "2", Health: "1", Motor: "0", MF: "3", Life: "1",
		VisitingDateTime: &at, CustomerImage: "https://img/1.jpg", Latitude: &lat, Longitude: &lng,
	}

	doc := toCustomerDocument(in)
	doc.ID = primitive.NewObjectID()
	out := fromCustomerDocument(doc)

	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.MF, out.MF)
	assert.Equal(t, &at, out.VisitingDateTime)
	assert.Equal(t, doc.ID.Hex(), out.DocumentID)
	assert.False(t, out.SheetIsSynced)
}
