package advisor

// Topic is a titled group of short texts, rendered as a collapsible section
// by clients.
type Topic struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

var applianceTips = []Topic{
	{"Aquecedor de água (chuveiro elétrico)", []string{
		"Limite o tempo de banho a 10-15 minutos para economizar energia.",
		"Considere instalar um aquecedor solar para reduzir o uso do chuveiro elétrico.",
	}},
	{"Ar-condicionado", []string{
		"Mantenha o termostato entre 23°C e 25°C para uma temperatura confortável e econômica.",
		"Use ventiladores para ajudar a circular o ar e reduzir o uso do ar-condicionado.",
	}},
	{"Aparelho de aquecimento elétrico", []string{
		"Use cobertores e roupas quentes para reduzir a necessidade de aquecimento elétrico.",
		"Considere alternativas como aquecedores a gás ou aquecedores solares.",
	}},
	{"Máquina de lavar roupas", []string{
		"Use a máquina com carga cheia para maximizar a eficiência.",
		"Escolha ciclos de lavagem com água fria sempre que possível.",
	}},
	{"Secadora de roupas", []string{
		"Seque as roupas ao ar livre sempre que possível.",
		"Limpe o filtro da secadora regularmente para otimizar o desempenho.",
	}},
	{"Ferro de passar roupa", []string{
		"Passe várias roupas de uma vez, quando o ferro já estiver quente.",
		"Utilize o modo vapor apenas quando necessário.",
	}},
	{"Geladeira", []string{
		"Verifique se as borrachas de vedação estão em bom estado para evitar perda de frio.",
		"Mantenha a temperatura entre 3°C e 5°C para economia de energia.",
	}},
	{"Forno elétrico", []string{
		"Evite abrir a porta do forno durante o cozimento para manter a temperatura.",
		"Considere usar o forno de micro-ondas para pratos menores, que consome menos energia.",
	}},
	{"Televisão", []string{
		"Desligue a TV quando não estiver em uso, em vez de deixá-la em modo de espera.",
		"Considere uma TV de LED, que consome menos energia do que modelos mais antigos.",
	}},
	{"Computador", []string{
		"Desligue o computador quando não estiver em uso, ou use o modo de hibernação.",
		"Use configurações de economia de energia para reduzir o consumo quando inativo.",
	}},
	{"Lâmpadas", []string{
		"Substitua lâmpadas incandescentes por LED, que consomem menos energia e duram mais.",
		"Aproveite a luz natural sempre que possível, abrindo cortinas e persianas.",
	}},
}

var tutorial = []Topic{
	{"Calculadora Energética", []string{
		"A calculadora é bem simples! Basta colocar os objetos que utilizam eletricidade, seu consumo médio em watts (veja a lista caso não saiba), o tempo que tal objeto é utilizado e quantos deles você tem em sua casa.",
	}},
	{"Lista de KWh", []string{
		"Na seção 'Lista de KWh', você encontrará a potência média de diversos aparelhos elétricos. Isso ajuda a estimar o consumo e a calcular a conta de luz.",
	}},
	{"Paineis Solares", []string{
		"Aqui você pode calcular a produção de energia dos painéis solares que deseja instalar. Informe o número de painéis, a produção diária de cada um e o custo da instalação.",
	}},
	{"Dicas Sustentáveis", []string{
		"Essa seção fornece dicas para economizar energia e tornar sua casa mais sustentável. Leia as dicas, com foco nos aparelhos que você mais gasta energia de acordo com a calculadora, e aplique-as no seu dia a dia!",
	}},
	{"Histórico de Consumo", []string{
		"Acompanhe seu consumo mensal de energia ao longo do tempo. Isso ajuda a identificar padrões e a tomar decisões informadas sobre o uso de energia.",
	}},
}

// ApplianceTips returns the per-appliance sustainability tips.
func ApplianceTips() []Topic { return cloneTopics(applianceTips) }

// Tutorial returns the usage guide, one topic per feature.
func Tutorial() []Topic { return cloneTopics(tutorial) }

func cloneTopics(in []Topic) []Topic {
	out := make([]Topic, len(in))
	for i, t := range in {
		out[i] = Topic{Title: t.Title, Items: append([]string(nil), t.Items...)}
	}
	return out
}
