package domain

// DefaultPropertyType se asigna cuando el cliente no envia tipo al crear.
const DefaultPropertyType = "house"

// Property es un inmueble publicado. Image guarda una URL absoluta externa o
// el nombre de un archivo propio del servicio.
type Property struct {
	ID          int64   `json:"id_property"`
	Title       string  `json:"title"`
	Type        string  `json:"type"`
	Price       float64 `json:"price"`
	EthPrice    float64 `json:"ethPrice"`
	Image       *string `json:"image"`
	Address     string  `json:"address"`
	Description string  `json:"description"`
}
