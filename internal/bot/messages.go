package bot

// =============================================================================
// General messages
// =============================================================================

const (
	MsgUnexpectedErr = `Erro inesperado: %s`
	MsgVersionInfo   = "Versão: %s\nCompilado: %s"
	MsgStart         = `
		Olá! Eu busco estabelecimentos no Google Places e devolvo uma planilha.

		1. Configure sua chave da API com /chave
		2. Inicie uma busca com /buscar

		Use /ajuda para ver todos os comandos.
	`
	MsgHelp = `
		*Comandos*
		/buscar - iniciar uma nova busca
		/cancelar - cancelar a busca atual
		/chave <chave> - definir sua chave da API do Google Places
		/categorias - listar as categorias disponíveis
		/versao - mostrar a versão
	`
	MsgUnknownInput = "Não entendi. Use /buscar para iniciar uma busca ou /ajuda para ver os comandos."
)

// =============================================================================
// API key messages
// =============================================================================

const (
	MsgKeyUsage   = "Uso: `/chave <sua chave da API>`"
	MsgKeySaved   = "✅ Chave salva para esta conversa (`%s`). Apaguei sua mensagem com a chave."
	MsgKeyMissing = "Você ainda não definiu uma chave da API. Use `/chave <sua chave>` antes de buscar."
)

// =============================================================================
// Search flow messages
// =============================================================================

const (
	MsgAskMunicipalities = `
		Quais municípios devo pesquisar?
		Separe por vírgulas, por exemplo: São Paulo, Campinas
	`
	MsgNoMunicipalities  = "Informe pelo menos um município."
	MsgAskRequester      = "Qual é o seu nome? Ele será usado no nome do arquivo."
	MsgEmptyRequester    = "O nome não pode ficar vazio."
	MsgSelectCategories  = "Selecione as categorias (%d selecionadas) e toque em *%s* quando terminar."
	MsgNoCategories      = "Selecione pelo menos uma categoria."
	MsgSearchCancelled   = "Busca cancelada."
	MsgNothingToCancel   = "Não há nenhuma busca em andamento."
	MsgSearchInProgress  = "Já existe uma busca em andamento. Aguarde ou use /cancelar."
	MsgSearchStarting    = "🔎 Iniciando busca: %s × %s (%s)"
	MsgPairProgress      = "🔎 %d/%d: %s em %s..."
	MsgPairDone          = "✅ %d/%d: %s em %s (%s)"
	MsgPairFailed        = "⚠️ Erro ao buscar %s em %s: %s"
	MsgSearchFinished    = "Busca concluída: %s em %s."
	MsgSearchEmpty       = "Nenhum resultado encontrado."
	MsgSearchInterrupted = "Busca interrompida. %s coletados até aqui."
	MsgExportFailed      = "Erro ao gerar a planilha: %s"
	MsgCategoryList      = "*Categorias disponíveis*\n"
)

// =============================================================================
// Summary caption
// =============================================================================

const (
	MsgSummaryCaption = `
		%s em %s
		Com telefone: %d, com site: %d
		Falhas: %d
	`
)

// =============================================================================
// Buttons
// =============================================================================

const (
	BtnDone   = "Concluir"
	BtnAll    = "Todas"
	BtnNone   = "Nenhuma"
	BtnPrev   = "◀"
	BtnNext   = "▶"
	BtnCancel = "Cancelar"
)
