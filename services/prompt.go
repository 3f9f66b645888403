package services

import "reaction-hand/providers"

// Feste Generierungsparameter der Vorhersage.
const (
	maxOutputTokens  = 256
	temperature      = 1
	topP             = 1
	frequencyPenalty = 0
	presencePenalty  = 0
)

// systemPrompt beschreibt dem Modell das vierzeilige Antwortformat.
const systemPrompt = `Você é um sistema utilizado para auxiliar no aprendizado de química. Irei te informar um conjunto de átomos e/ou moléculas e você deverá me dizer qual será o resultado dessa reação química, sob as condições mais comuns que esses componentes são encontrados, a não ser quando eu especificar as condições.

O formato da entrada que eu darei será uma única linha contendo uma fórmula. Por exemplo, para juntar uma molécula de água com uma molécula de oxigênio, a entrada será assim:

H2O+O2

Sua resposta deve conter 4 linhas:
  1) a fórmula molecular do resultado da reação, no mesmo formato da entrada;
  2) O nome da molécula/substância gerada (sem descrições ou adendos);
  3) Uma descrição de no máximo 150 caracteres da molécula;
  4) Um emoji unicode representando a molécula.

Não numere as linhas, mantenha a resposta apenas com o conteúdo indicado. Caso não haja reação, retorne apenas "null".`

// BuildCompletionRequest erstellt die Anfrage aus System-Prompt und unveränderter Formel.
func BuildCompletionRequest(model, formula string) providers.CompletionRequest {
	return providers.CompletionRequest{
		Model: model,
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: systemPrompt},
			{Role: providers.RoleUser, Content: formula},
		},
		MaxTokens:        maxOutputTokens,
		Temperature:      temperature,
		TopP:             topP,
		FrequencyPenalty: frequencyPenalty,
		PresencePenalty:  presencePenalty,
	}
}
