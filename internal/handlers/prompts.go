package handlers

import "fmt"

// Prompt templates wrapped around user text before it reaches the backend.
// The persona itself travels as the system instruction, not here.

func buildAnalyzePrompt(text string) string {
	return fmt.Sprintf("Analiza el texto a la luz de la Escritura.\n"+
		"Formato de salida obligatorio:\n"+
		"1) Diagnóstico (1–3 frases)\n"+
		"2) Errores doctrinales o riesgos (bullets)\n"+
		"3) Textos bíblicos relevantes (citas: Libro cap:vers)\n"+
		"4) Corrección breve y pastoral\n"+
		"5) Preguntas útiles (1–2) si falta contexto\n\n"+
		"TEXTO:\n%s", text)
}

func buildBooksPrompt(topic string) string {
	return fmt.Sprintf("Recomienda 3 a 5 libros de sana doctrina (Reformada/Puritana/Bautista Reformada) "+
		"sobre: %q.\n"+
		"- Incluye: título, autor, y 1 razón breve.\n"+
		"- Evita autores de prosperidad o liberales.\n"+
		"- Si recomiendas un libro controversial, adviértelo.\n", topic)
}

func buildChatPrompt(text string) string {
	return fmt.Sprintf("Responde como asistente teológico reformado, con Biblia como autoridad.\n"+
		"Reglas:\n"+
		"- Sé directo, pastoral.\n"+
		"- Incluye 1–3 textos bíblicos si haces afirmaciones doctrinales.\n"+
		"- Si el usuario pide opinión prudencial, marca que es prudencia.\n\n"+
		"Usuario dice/pregunta:\n%s", text)
}
