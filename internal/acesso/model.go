package acesso

// Perfis conhecidos do sistema.
const (
	PerfilMaster = "MASTER"
	PerfilMedico = "MEDICO"
)

// Módulos do painel. O conjunto é fechado: toda resolução de permissões
// devolve um mapa completo sobre estes identificadores.
const (
	ModuloDashboard     = "DASHBOARD"
	ModuloConfiguracoes = "CONFIGURACOES"
	ModuloPerfil        = "PERFIL"
	ModuloMedicos       = "MEDICOS"
	ModuloContratos     = "CONTRATOS"
	ModuloEscalas       = "ESCALAS"
	ModuloPonto         = "PONTO"
	ModuloDocumentos    = "DOCUMENTOS"
	ModuloAuditoria     = "AUDITORIA"
)

// Modulos lista o conjunto fechado na ordem de exibição.
var Modulos = []string{
	ModuloDashboard,
	ModuloConfiguracoes,
	ModuloPerfil,
	ModuloMedicos,
	ModuloContratos,
	ModuloEscalas,
	ModuloPonto,
	ModuloDocumentos,
	ModuloAuditoria,
}

// Módulos sempre habilitados para o perfil MASTER, independentemente de
// override gravado.
var sempreAtivosMaster = map[string]bool{
	ModuloDashboard:     true,
	ModuloConfiguracoes: true,
	ModuloPerfil:        true,
}

// Matriz padrão compilada por perfil; overrides por tenant se sobrepõem.
var matrizPadrao = map[string]map[string]bool{
	PerfilMaster: {
		ModuloDashboard:     true,
		ModuloConfiguracoes: true,
		ModuloPerfil:        true,
		ModuloMedicos:       true,
		ModuloContratos:     true,
		ModuloEscalas:       true,
		ModuloPonto:         true,
		ModuloDocumentos:    true,
		ModuloAuditoria:     true,
	},
	PerfilMedico: {
		ModuloDashboard:     true,
		ModuloConfiguracoes: false,
		ModuloPerfil:        true,
		ModuloMedicos:       false,
		ModuloContratos:     false,
		ModuloEscalas:       true,
		ModuloPonto:         true,
		ModuloDocumentos:    true,
		ModuloAuditoria:     false,
	},
}

// Item é uma célula da matriz (perfil, módulo, permitido).
type Item struct {
	Perfil    string `json:"perfil"`
	Modulo    string `json:"modulo"`
	Permitido bool   `json:"permitido"`
}

// PerfilValido verifica se o identificador de perfil é conhecido.
func PerfilValido(perfil string) bool {
	_, ok := matrizPadrao[perfil]
	return ok
}

// ModuloValido verifica se o identificador de módulo é conhecido.
func ModuloValido(modulo string) bool {
	for _, m := range Modulos {
		if m == modulo {
			return true
		}
	}
	return false
}
