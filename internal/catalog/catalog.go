// Package catalog holds the fixed appliance choices offered per area and a
// reference list of typical power draws.
package catalog

import (
	"strings"

	"github.com/bher20/ecoenergy/internal/energy"
)

var options = map[energy.Area][]string{
	energy.AreaHomeAppliances: {
		"Geladeira/Freezer", "Fogão Elétrico", "Micro-ondas", "Máquina de lavar roupas",
		"Máquina de secar roupas", "Máquina de lavar louça", "Ferro de passar roupa",
		"Aparelho de Ar-condicionado", "Ventilador", "Aquecedor Elétrico", "Chuveiro Elétrico",
		"Purificador de água elétrico", "Desumidificador", "Umidificador",
	},
	energy.AreaEntertainment: {
		"Televisão", "Computador (Desktop/Notebook)", "Vídeo Game/Consoles", "Home theater",
		"Caixa de som", "Roteador de Internet", "Receptor de TV a cabo",
		"Carregador de celular e tablet",
	},
	energy.AreaLighting: {
		"Lâmpada Incandescente (Comum)", "Lâmpada Fluorescente", "Lâmpada LED", "Abajur",
		"Luminária", "Aspirador de Pó", "Liquidificador", "Batedeira", "Processador de Alimentos",
		"Cafeteira elétrica", "Chaleira elétrica", "Torradeira", "Sanduicheira/Grill Elétrico",
		"Forno elétrico",
	},
	energy.AreaOther: {
		"Secador de cabelo", "Máquina de barbear elétrica", "Escova de dentes elétrica",
		"Cortador de grama elétrico", "Furadeira Elétrica", "Portão Automático",
		"Sistema de alarme e segurança (Câmeras, sensores)", "Bombas de água para piscina ou poço",
	},
}

// Reference is one entry of the typical wattage list.
type Reference struct {
	Name  string      `json:"name"`
	Area  energy.Area `json:"area"`
	Watts float64     `json:"watts"`
}

// The values are approximate and vary with model and usage.
var references = []Reference{
	{"Geladeira/Freezer", energy.AreaHomeAppliances, 150},
	{"Fogão elétrico", energy.AreaHomeAppliances, 2000},
	{"Micro-ondas", energy.AreaHomeAppliances, 1200},
	{"Máquina de lavar roupas", energy.AreaHomeAppliances, 500},
	{"Secadora de roupas", energy.AreaHomeAppliances, 1500},
	{"Máquina de lavar louça", energy.AreaHomeAppliances, 1300},
	{"Ferro de passar roupa", energy.AreaHomeAppliances, 1000},
	{"Aparelho de ar-condicionado", energy.AreaHomeAppliances, 1200},
	{"Ventiladores", energy.AreaHomeAppliances, 60},
	{"Aquecedor elétrico", energy.AreaHomeAppliances, 1500},
	{"Aquecedor de água (chuveiro elétrico)", energy.AreaHomeAppliances, 5500},
	{"Purificador de água elétrico", energy.AreaHomeAppliances, 100},
	{"Desumidificador", energy.AreaHomeAppliances, 300},
	{"Umidificador", energy.AreaHomeAppliances, 40},

	{"Televisão", energy.AreaEntertainment, 100},
	{"Computadores (desktop, notebook)", energy.AreaEntertainment, 200},
	{"Vídeo game/consoles de jogos", energy.AreaEntertainment, 150},
	{"Home theater", energy.AreaEntertainment, 200},
	{"Caixas de som", energy.AreaEntertainment, 50},
	{"Roteador de internet", energy.AreaEntertainment, 10},
	{"Receptores de TV a cabo", energy.AreaEntertainment, 20},
	{"Carregadores de celular e tablets", energy.AreaEntertainment, 5},

	{"Lâmpada Incandescente (Comum)", energy.AreaLighting, 60},
	{"Lâmpada Fluorescente", energy.AreaLighting, 15},
	{"Lâmpada LED", energy.AreaLighting, 10},
	{"Abajures", energy.AreaLighting, 15},
	{"Luminárias", energy.AreaLighting, 20},
	{"Aspirador de pó", energy.AreaLighting, 600},
	{"Liquidificador", energy.AreaLighting, 350},
	{"Batedeira", energy.AreaLighting, 200},
	{"Processador de alimentos", energy.AreaLighting, 400},
	{"Cafeteira elétrica", energy.AreaLighting, 800},
	{"Chaleira elétrica", energy.AreaLighting, 1500},
	{"Torradeira", energy.AreaLighting, 800},
	{"Sanduicheira/Grill elétrico", energy.AreaLighting, 700},
	{"Forno elétrico", energy.AreaLighting, 1500},

	{"Máquina de secar cabelo", energy.AreaOther, 1200},
	{"Máquina de barbear elétrica", energy.AreaOther, 10},
	{"Escova de dentes elétrica", energy.AreaOther, 5},
	{"Cortador de grama elétrico", energy.AreaOther, 1000},
	{"Furadeira elétrica", energy.AreaOther, 600},
	{"Portão automático", energy.AreaOther, 100},
	{"Sistema de alarme e segurança (câmeras, sensores)", energy.AreaOther, 10},
	{"Bombas de água para piscina ou poço", energy.AreaOther, 750},
}

// Areas returns the four areas in display order.
func Areas() []energy.Area { return energy.Areas() }

// Options returns the appliance names offered for area, nil for an unknown area.
func Options(area energy.Area) []string {
	opts, ok := options[area]
	if !ok {
		return nil
	}
	return append([]string(nil), opts...)
}

// References returns the whole typical wattage list.
func References() []Reference {
	return append([]Reference(nil), references...)
}

// TypicalWatts looks up the typical power draw of name. Matching ignores
// case since the option list and the reference list spell some names
// differently.
func TypicalWatts(name string) (float64, bool) {
	name = strings.TrimSpace(name)
	for _, r := range references {
		if strings.EqualFold(r.Name, name) {
			return r.Watts, true
		}
	}
	return 0, false
}

// Catalog is the full catalog as one value.
type Catalog struct {
	Areas      []energy.Area            `json:"areas"`
	Options    map[energy.Area][]string `json:"options"`
	References []Reference              `json:"references"`
}

// Snapshot returns a copy of the full catalog.
func Snapshot() Catalog {
	c := Catalog{Areas: Areas(), Options: make(map[energy.Area][]string, len(options)), References: References()}
	for _, a := range c.Areas {
		c.Options[a] = Options(a)
	}
	return c
}
