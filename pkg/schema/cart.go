package schema

const CartSnapshotSchemaTextV1 = `{
	"type": "record",
	"namespace": "shopcart",
	"name": "cart_snapshot",
	"fields": [
		{"name": "device_id", "type": "string"},
		{"name": "user_id", "type": "string"},
		{"name": "items", "type": {
			"type": "array",
			"items": {
				"type": "record",
				"name": "cart_item",
				"fields": [
					{"name": "product_id", "type": "string"},
					{"name": "name", "type": "string"},
					{"name": "price", "type": "string"},
					{"name": "quantity", "type": "int"}
				]
			}
		}},
		{"name": "total", "type": "string"},
		{"name": "item_count", "type": "int"},
		{"name": "updated_at", "type": "long"}
	]
}`

type (
	// A CartSnapshotV1 is the whole cart of a device after a change.
	// UserID is empty for anonymous carts. Money is a decimal string.
	CartSnapshotV1 struct {
		DeviceID  string       `avro:"device_id"`
		UserID    string       `avro:"user_id"`
		Items     []CartItemV1 `avro:"items"`
		Total     string       `avro:"total"`
		ItemCount int          `avro:"item_count"`
		UpdatedAt int64        `avro:"updated_at"`
	}

	CartItemV1 struct {
		ProductID string `avro:"product_id"`
		Name      string `avro:"name"`
		Price     string `avro:"price"`
		Quantity  int    `avro:"quantity"`
	}
)

const IdentityEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "shopcart",
	"name": "identity_event",
	"fields": [
		{"name": "device_id", "type": "string"},
		{"name": "user_id", "type": "string"}
	]
}`

// An IdentityEventV1 signs a device in, or out when UserID is empty.
type IdentityEventV1 struct {
	DeviceID string `avro:"device_id"`
	UserID   string `avro:"user_id"`
}
