package http

import (
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/escalamedica/plantao/internal/documento"
	httpmiddleware "github.com/escalamedica/plantao/internal/http/middleware"
)

const uploadMemoriaMaxima = 12 << 20

// ListDocumentos devolve os documentos do tenant, com filtro opcional por médico.
func (h *Handler) ListDocumentos(w http.ResponseWriter, r *http.Request) {
	page, limit := ParsePagination(r)

	var medicoID *uuid.UUID
	if raw := r.URL.Query().Get("medico_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "medico_id inválido", nil)
			return
		}
		medicoID = &id
	}

	documentos, total, err := h.documentos.List(r.Context(), httpmiddleware.GetTenantID(r.Context()), medicoID, page, limit)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, PaginatedEnvelope{
		Items:      documentos,
		Pagination: NewPagination(page, limit, total),
	})
}

// UploadDocumento recebe um arquivo multipart e o publica no storage.
// O campo medico_id é opcional; ausente, o documento vale para todos os médicos.
func (h *Handler) UploadDocumento(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(uploadMemoriaMaxima); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "multipart inválido", nil)
		return
	}

	file, header, err := r.FormFile("arquivo")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "arquivo é obrigatório", nil)
		return
	}
	defer file.Close()

	conteudo, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "falha ao ler arquivo", nil)
		return
	}

	input := documento.UploadInput{
		Nome:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Conteudo: conteudo,
	}
	if nome := r.FormValue("nome"); nome != "" {
		input.Nome = nome
	}
	if raw := r.FormValue("medico_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "medico_id inválido", nil)
			return
		}
		input.MedicoID = &id
	}

	doc, err := h.documentos.Upload(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), input)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{"documento": doc})
}

// DeleteDocumento remove os metadados do documento.
func (h *Handler) DeleteDocumento(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return
	}

	if err := h.documentos.Delete(r.Context(), httpmiddleware.GetTenantID(r.Context()), httpmiddleware.GetSubjectID(r.Context()), id); err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"removido": true})
}
